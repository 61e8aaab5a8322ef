package ai

import (
	"strings"

	"github.com/Tanishka82/nexa-app/internal/config"
)

// Template names a user prompt. Placeholders are written {{name}}.
type Template string

const (
	TemplateInsight          Template = "insight"
	TemplateQuiz             Template = "quiz"
	TemplateInterview        Template = "interview"
	TemplateAnswerEvaluation Template = "answerEvaluation"
	TemplateImprovementTip   Template = "improvementTip"
	TemplateResumeAnalysis   Template = "resumeAnalysis"
	TemplateImproveText      Template = "improveText"
	TemplateCoverLetter      Template = "coverLetter"
)

// primaryTemplates is the user template a configured custom user prompt replaces
var primaryTemplates = map[config.Operation]Template{
	config.OpInsight:     TemplateInsight,
	config.OpQuiz:        TemplateQuiz,
	config.OpInterview:   TemplateInterview,
	config.OpScoring:     TemplateAnswerEvaluation,
	config.OpResume:      TemplateResumeAnalysis,
	config.OpCoverLetter: TemplateCoverLetter,
}

// DefaultSystemPrompts provides the default system instruction per operation
var DefaultSystemPrompts = map[config.Operation]string{
	config.OpInsight: `You are a labour market analyst. You report current, realistic figures for an industry
and never invent precision you do not have. You answer with JSON only.`,

	config.OpQuiz: `You are a technical interviewer who writes fair multiple-choice questions.
Every question has exactly one correct option, and the correct answer is copied verbatim from the options.
You answer with JSON only.`,

	config.OpInterview: `You are an experienced hiring manager preparing a spoken interview.
Questions are short, open-ended and answerable in two minutes. You answer with JSON only.`,

	config.OpScoring: `You are a strict but encouraging interview coach. You judge one answer at a time,
on its own merits, and keep critiques to a single sentence.`,

	config.OpResume: `You are an expert resume reviewer and ATS (Applicant Tracking System) scanner.
You never invent experience the candidate does not have.`,

	config.OpCoverLetter: `You are a professional career writer. You write concise, specific cover letters
in clean markdown and only use facts given to you.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = map[Template]string{
	TemplateInsight: `Analyze the current state of the {{industry}} industry and provide insights in ONLY the following JSON format without any additional notes or explanations:
{
  "salaryRanges": [
    { "role": "string", "min": number, "max": number, "median": number, "location": "string" }
  ],
  "growthRate": number,
  "demandLevel": "High" | "Medium" | "Low",
  "topSkills": ["skill1", "skill2"],
  "marketOutlook": "Positive" | "Neutral" | "Negative",
  "keyTrends": ["trend1", "trend2"],
  "recommendedSkills": ["skill1", "skill2"]
}
IMPORTANT: Return ONLY the JSON. No additional text, notes, or markdown formatting.
Include at least 5 common roles for salary ranges.
Growth rate should be a percentage.
Include at least 5 skills and trends.`,

	TemplateQuiz: `Role: {{jobRole}}
Description: {{jobDescription}}
Skills: {{skills}}

Generate {{count}} technical multiple-choice questions.

Format: JSON Array only.
Structure: [{"question": "...", "options": ["a", "b", "c", "d"], "correctAnswer": "a", "explanation": "..."}]`,

	TemplateInterview: `Generate {{count}} interview questions for a job.
Job Description: "{{jobDescription}}"
Candidate Skills: {{skills}}

Requirements:
1. Questions should be a mix of technical and behavioral.
2. Return ONLY a JSON array of strings.
Example: ["Question 1?", "Question 2?"]

IMPORTANT: No markdown, no "Here are your questions", just the array.`,

	TemplateAnswerEvaluation: `Question: "{{question}}"
User Answer: "{{answer}}"

Evaluate the answer.
Return JSON format only:
{
  "rating": number (1-10),
  "feedback": "string (1 sentence critique)",
  "improvement": "string (1 specific tip)"
}`,

	TemplateImprovementTip: `The user scored {{score}}% on a {{category}} assessment.
Their weakest answers were:
{{weakest}}

Provide a 1-sentence encouraging tip.`,

	TemplateResumeAnalysis: `Analyze the following resume content against industry standards.

Resume Content:
"{{resume}}"

Return a JSON object with the following structure:
{
  "atsScore": <number 0-100>,
  "summary": <string, a concise 2 sentence summary of the candidate's profile>,
  "weaknesses": <array of strings, list 3 specific things that are missing or weak>,
  "suggestions": <array of strings, list 3 specific actionable tips to improve>
}

IMPORTANT: Return ONLY the JSON. No markdown formatting.`,

	TemplateImproveText: `As an expert resume writer, improve the following {{type}} description for a {{industry}} professional.
Make it more impactful, quantifiable, and aligned with industry standards.
Current content: "{{current}}"

Requirements:
1. Use action verbs
2. Include metrics and results where possible
3. Highlight relevant technical skills
4. Keep it concise but detailed
5. Focus on achievements over responsibilities
6. Use industry-specific keywords

Format the response as a single paragraph without any additional text or explanations.`,

	TemplateCoverLetter: `Write a professional cover letter for a {{jobTitle}} position at {{companyName}}.

About the candidate:
- Name: {{name}}
- Industry: {{industry}}
- Skills: {{skills}}

Candidate's Resume Content:
{{resume}}

Job Description:
{{jobDescription}}

Requirements:
1. Use a professional, enthusiastic tone.
2. Highlight relevant skills and experience from the resume.
3. Show understanding of the company's needs.
4. Keep it concise (max 400 words).
5. Use proper business letter formatting in markdown.

Format the output as clean markdown text.`,
}

// Prompts resolves system and user prompts, preferring custom prompts from
// the store over the built-in defaults. A nil store means defaults only.
type Prompts struct {
	store *config.PromptStore
}

func NewPrompts(store *config.PromptStore) *Prompts {
	return &Prompts{store: store}
}

// System returns the system instruction for op.
func (p *Prompts) System(op config.Operation) string {
	var custom string
	if p != nil {
		custom = p.store.Get(op).System
	}
	return resolvePrompt(custom, DefaultSystemPrompts[op])
}

// Render fills the template's {{name}} placeholders from vars. Unknown
// placeholders are left as they are.
func (p *Prompts) Render(t Template, vars map[string]string) string {
	tmpl := DefaultUserPrompts[t]
	if p != nil {
		for op, primary := range primaryTemplates {
			if primary == t {
				tmpl = resolvePrompt(p.store.Get(op).User, tmpl)
				break
			}
		}
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// resolvePrompt returns the custom prompt when set, otherwise the default
func resolvePrompt(custom, fallback string) string {
	if strings.TrimSpace(custom) != "" {
		return custom
	}
	return fallback
}
