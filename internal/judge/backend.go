package judge

const (
	publicURL  = "https://ce.judge0.com"
	hostedURL  = "https://judge0-ce.p.rapidapi.com"
	hostedHost = "judge0-ce.p.rapidapi.com"
)

type BackendKind int

const (
	SelfHosted BackendKind = iota
	HostedWithKey
	PublicFree
)

// Backend is the judge endpoint the gateway talks to, resolved once at
// startup. Precedence: explicit URL, then API key against the hosted
// endpoint, then the public free tier.
type Backend struct {
	Kind   BackendKind
	URL    string
	APIKey string
}

func ResolveBackend(explicitURL, apiKey string) Backend {
	switch {
	case explicitURL != "":
		return Backend{Kind: SelfHosted, URL: explicitURL, APIKey: apiKey}
	case apiKey != "":
		return Backend{Kind: HostedWithKey, URL: hostedURL, APIKey: apiKey}
	default:
		return Backend{Kind: PublicFree, URL: publicURL}
	}
}
