package models

import "time"

type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
	RoleAdmin       Role = "admin"
)

// Elevated reports whether the role bypasses the interviewer/candidate
// ownership checks.
func (r Role) Elevated() bool { return r == RoleAdmin }

type InterviewStatus string

const (
	StatusScheduled  InterviewStatus = "scheduled"
	StatusInProgress InterviewStatus = "in-progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusCancelled  InterviewStatus = "cancelled"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageCode   MessageType = "code"
	MessageSystem MessageType = "system"
)

// MaxMessageLen bounds a chat message body.
const MaxMessageLen = 1000

type TestCase struct {
	Input          string `json:"input" bson:"input"`
	ExpectedOutput string `json:"expectedOutput" bson:"expectedOutput"`
	IsHidden       bool   `json:"isHidden" bson:"isHidden"`
}

type Question struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Difficulty  Difficulty `json:"difficulty" bson:"difficulty"`
	Category    string     `json:"category" bson:"category"`
	Tags        []string   `json:"tags,omitempty" bson:"tags,omitempty"`
	TestCases   []TestCase `json:"testCases,omitempty" bson:"testCases,omitempty"`
	TimeLimit   int        `json:"timeLimit" bson:"timeLimit"`     // minutes, advisory
	MemoryLimit int        `json:"memoryLimit" bson:"memoryLimit"` // MB, advisory
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// TestResult is one recorded per-case outcome stored on a submission.
type TestResult struct {
	Index  int  `json:"index" bson:"index"`
	Passed bool `json:"passed" bson:"passed"`
}

// Submission is a candidate's code for one question within an interview.
// At most one submission exists per (interview, question) pair; a repeat
// submission overwrites in place.
type Submission struct {
	QuestionID  string       `json:"questionId" bson:"questionId"`
	Code        string       `json:"code" bson:"code"`
	Language    string       `json:"language" bson:"language"`
	SubmittedAt time.Time    `json:"submittedAt" bson:"submittedAt"`
	TestResults []TestResult `json:"testResults,omitempty" bson:"testResults,omitempty"`
}

type Interview struct {
	ID              string          `json:"id" bson:"_id"`
	Title           string          `json:"title" bson:"title"`
	Description     string          `json:"description,omitempty" bson:"description,omitempty"`
	InterviewerID   string          `json:"interviewerId" bson:"interviewerId"`
	CandidateID     string          `json:"candidateId" bson:"candidateId"`
	QuestionIDs     []string        `json:"questionIds" bson:"questionIds"`
	CurrentQuestion string          `json:"currentQuestion,omitempty" bson:"currentQuestion,omitempty"`
	Status          InterviewStatus `json:"status" bson:"status"`
	ScheduledAt     time.Time       `json:"scheduledAt" bson:"scheduledAt"`
	Duration        int             `json:"duration" bson:"duration"` // minutes
	StartedAt       *time.Time      `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt         *time.Time      `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	CandidateCode   []Submission    `json:"candidateCode,omitempty" bson:"candidateCode,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// IsParticipant reports whether userID is the interviewer or candidate.
func (iv *Interview) IsParticipant(userID string) bool {
	return iv.InterviewerID == userID || iv.CandidateID == userID
}

// FindSubmission returns the live submission for questionID, if any.
func (iv *Interview) FindSubmission(questionID string) *Submission {
	for i := range iv.CandidateCode {
		if iv.CandidateCode[i].QuestionID == questionID {
			return &iv.CandidateCode[i]
		}
	}
	return nil
}

// Clone returns a deep copy so a room can mutate a scratch copy and swap it in
// only after the persistence write lands.
func (iv *Interview) Clone() *Interview {
	cp := *iv
	cp.QuestionIDs = append([]string(nil), iv.QuestionIDs...)
	cp.CandidateCode = make([]Submission, len(iv.CandidateCode))
	for i, sub := range iv.CandidateCode {
		cp.CandidateCode[i] = sub
		cp.CandidateCode[i].TestResults = append([]TestResult(nil), sub.TestResults...)
	}
	return &cp
}

type Message struct {
	ID          string      `json:"id" bson:"_id"`
	InterviewID string      `json:"interviewId" bson:"interviewId"`
	SenderID    string      `json:"senderId" bson:"senderId"`
	Body        string      `json:"message" bson:"message"`
	Type        MessageType `json:"messageType" bson:"messageType"`
	IsRead      bool        `json:"isRead" bson:"isRead"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
}

// TestVerdict is the per-case grading outcome returned to the caller. Hidden
// cases carry only index/hidden/passed; expected and actual stay empty.
type TestVerdict struct {
	Index    int    `json:"index"`
	IsHidden bool   `json:"isHidden"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SuiteResult struct {
	AllPassed bool          `json:"allPassed"`
	Results   []TestVerdict `json:"results"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
