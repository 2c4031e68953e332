package models

// WSFrame is the envelope for every frame crossing the session websocket.
type WSFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type SendMessageEvent struct {
	InterviewID string      `json:"interviewId"`
	SenderID    string      `json:"senderId"`
	Message     string      `json:"message"`
	MessageType MessageType `json:"messageType"`
}

type EndInterviewEvent struct {
	InterviewID string `json:"interviewId"`
	By          string `json:"by"`
}

type PresenceEvent struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	Connections int    `json:"connections"`
}

type InterviewEndedEvent struct {
	InterviewID string `json:"interviewId"`
	By          string `json:"by"`
	Message     string `json:"message"`
}

type CurrentQuestionChanged struct {
	InterviewID string `json:"interviewId"`
	QuestionID  string `json:"questionId"`
}

// LifecycleEvent is published to Redis so sibling services can observe
// interview starts and ends without polling.
type LifecycleEvent struct {
	InterviewID   string `json:"interviewId"`
	Status        string `json:"status"`
	InterviewerID string `json:"interviewerId"`
	CandidateID   string `json:"candidateId"`
	At            string `json:"at"`
}
