package types

import "time"

// SalaryRange is one role's compensation band inside an industry insight.
type SalaryRange struct {
	Role     string  `json:"role"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Location string  `json:"location,omitempty"`
}

// IndustryInsight is the cached market report for one industry.
type IndustryInsight struct {
	SalaryRanges      []SalaryRange `json:"salaryRanges,omitempty"`
	GrowthRate        float64       `json:"growthRate"`  // percent
	DemandLevel       string        `json:"demandLevel"` // HIGH, MEDIUM, LOW
	TopSkills         []string      `json:"topSkills"`
	MarketOutlook     string        `json:"marketOutlook,omitempty"` // POSITIVE, NEUTRAL, NEGATIVE
	KeyTrends         []string      `json:"keyTrends,omitempty"`
	RecommendedSkills []string      `json:"recommendedSkills,omitempty"`
}

// InsightReport is an insight together with its cache bookkeeping.
type InsightReport struct {
	Industry    string          `json:"industry"`
	Insight     IndustryInsight `json:"insight"`
	Degenerate  bool            `json:"degenerate"`
	GeneratedAt time.Time       `json:"generatedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizRequest narrows quiz generation to a role.
type QuizRequest struct {
	JobRole        string `json:"jobRole,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
}

// AnswerEvaluation is the model's verdict on one interview answer.
type AnswerEvaluation struct {
	Rating      float64 `json:"rating"` // 1-10
	Feedback    string  `json:"feedback"`
	Improvement string  `json:"improvement,omitempty"`
}

// InterviewTurn pairs a question with the candidate's answer.
type InterviewTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Assessment categories
const (
	CategoryTechnical = "Technical"
	CategoryInterview = "Interview"
)

// Assessment is a persisted session summary.
type Assessment struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	Questions      []string  `json:"questions"`
	Answers        []string  `json:"answers"`
	Feedback       string    `json:"feedback,omitempty"`
	AggregateScore float64   `json:"score"`
	ImprovementTip string    `json:"improvementTip,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AssessmentStats summarizes an owner's assessment history.
type AssessmentStats struct {
	Count        int        `json:"count"`
	AverageScore float64    `json:"averageScore"`
	LatestScore  float64    `json:"latestScore"`
	LatestAt     *time.Time `json:"latestAt,omitempty"`
}

// ResumeAnalysis is an ATS-style review of a résumé.
type ResumeAnalysis struct {
	ATSScore    int      `json:"atsScore"` // 0-100
	Summary     string   `json:"summary"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// ImproveRequest asks for a rewrite of one résumé section.
type ImproveRequest struct {
	Current string `json:"current"`
	Type    string `json:"type"` // e.g. experience, project, summary
}

// Resume is the owner's saved résumé.
type Resume struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the onboarding data of one owner.
type Profile struct {
	Name       string   `json:"name,omitempty"`
	Industry   string   `json:"industry"`
	Experience int      `json:"experience"`
	Bio        string   `json:"bio,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

// CoverLetterRequest describes the job a letter is written for.
type CoverLetterRequest struct {
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	JobDescription string `json:"jobDescription"`
}

// CoverLetter is a generated letter.
type CoverLetter struct {
	ID             string    `json:"id"`
	JobTitle       string    `json:"jobTitle"`
	CompanyName    string    `json:"companyName"`
	JobDescription string    `json:"jobDescription,omitempty"`
	Content        string    `json:"content"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ExtractRequest is the input to the standalone extract-and-validate
// operation. Schema names one of the registered payload schemas.
type ExtractRequest struct {
	Text   string `json:"text"`
	Shape  string `json:"shape"`
	Schema string `json:"schema"`
}

// ExtractResponse mirrors the normalizer's result envelope.
type ExtractResponse struct {
	Value            any      `json:"value"`
	Degenerate       bool     `json:"degenerate"`
	DegenerateFields []string `json:"degenerateFields,omitempty"`
}
