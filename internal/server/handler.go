package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Tanishka82/nexa-app/internal/coach"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// startSpan opens an API span under the request's server span
func (s *Server) startSpan(r *http.Request, name string) (context.Context, oteltrace.Span) {
	return s.Observability.Tracer("nexa.api").Start(r.Context(), "api."+name)
}

// fail records err on the span and writes the mapped error response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, span oteltrace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.writeAppError(w, r, err)
}

func (s *Server) getInsightHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "insight")
	defer span.End()

	industry := chi.URLParam(r, "industry")
	span.SetAttributes(attribute.String("industry", coach.IndustryKey(industry)))

	report, err := s.Coach.Insight(ctx, industry)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Bool("degenerate", report.Degenerate))
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) invalidateInsightHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "insight.invalidate")
	defer span.End()

	industry := chi.URLParam(r, "industry")
	removed, err := s.Coach.InvalidateInsight(ctx, industry)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"industry": coach.IndustryKey(industry),
		"removed":  removed,
	})
}

func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "extract")
	defer span.End()

	var req types.ExtractRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("schema", req.Schema),
		attribute.Int("request.text_length", len(req.Text)),
	)

	resp, err := coach.Extract(req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) onboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "profile.save")
	defer span.End()

	var profile types.Profile
	if err := parseJSONRequest(r, &profile); err != nil {
		s.fail(w, r, span, err)
		return
	}

	result, err := s.Coach.Onboard(ctx, ownerFrom(r), profile)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "profile.get")
	defer span.End()

	profile, err := s.Coach.Profile(ctx, ownerFrom(r))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) generateQuizHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "quiz.generate")
	defer span.End()

	var req types.QuizRequest
	if r.ContentLength != 0 {
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(w, r, span, err)
			return
		}
	}

	questions, err := s.Coach.GenerateQuiz(ctx, ownerFrom(r), req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Int("questions", len(questions)))
	s.writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) saveQuizHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "quiz.save")
	defer span.End()

	var req coach.SaveQuizRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}

	assessment, err := s.Coach.SaveQuiz(ctx, ownerFrom(r), req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Float64("score", assessment.AggregateScore))
	s.writeJSON(w, http.StatusCreated, assessment)
}

type interviewRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (s *Server) generateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "interview.generate")
	defer span.End()

	var req interviewRequest
	if r.ContentLength != 0 {
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(w, r, span, err)
			return
		}
	}

	questions, err := s.Coach.GenerateInterview(ctx, ownerFrom(r), req.JobDescription)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) evaluateAnswerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "interview.evaluate")
	defer span.End()

	var turn types.InterviewTurn
	if err := parseJSONRequest(r, &turn); err != nil {
		s.fail(w, r, span, err)
		return
	}

	record, err := s.Coach.EvaluateAnswer(ctx, turn)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) saveInterviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "interview.save")
	defer span.End()

	var req coach.SaveInterviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Int("answers", len(req.Answers)))

	assessment, err := s.Coach.SaveInterview(ctx, ownerFrom(r), req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Float64("score", assessment.AggregateScore))
	s.writeJSON(w, http.StatusCreated, assessment)
}

func (s *Server) listAssessmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "assessments.list")
	defer span.End()

	assessments, err := s.Coach.Assessments(ctx, ownerFrom(r))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"assessments": assessments})
}

func (s *Server) assessmentStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "assessments.stats")
	defer span.End()

	stats, err := s.Coach.AssessmentStats(ctx, ownerFrom(r))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type resumeRequest struct {
	Content string `json:"content"`
}

func (s *Server) analyzeResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "resume.analyze")
	defer span.End()

	var req resumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Int("request.resume_length", len(req.Content)))

	analysis, err := s.Coach.AnalyzeResume(ctx, req.Content)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Int("ats.score", analysis.ATSScore))
	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) saveResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "resume.save")
	defer span.End()

	var req resumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}

	resume, err := s.Coach.SaveResume(ctx, ownerFrom(r), req.Content)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resume)
}

func (s *Server) getResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "resume.get")
	defer span.End()

	resume, err := s.Coach.Resume(ctx, ownerFrom(r))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resume)
}

func (s *Server) improveTextHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "resume.improve")
	defer span.End()

	var req types.ImproveRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}

	improved, err := s.Coach.ImproveText(ctx, ownerFrom(r), req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"improved": improved})
}

func (s *Server) generateCoverLetterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "coverletter.generate")
	defer span.End()

	var req types.CoverLetterRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}

	letter, err := s.Coach.GenerateCoverLetter(ctx, ownerFrom(r), req)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, letter)
}

func (s *Server) listCoverLettersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "coverletter.list")
	defer span.End()

	letters, err := s.Coach.ListCoverLetters(ctx, ownerFrom(r))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"coverLetters": letters})
}

func (s *Server) getCoverLetterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "coverletter.get")
	defer span.End()

	letter, err := s.Coach.GetCoverLetter(ctx, ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, letter)
}

func (s *Server) deleteCoverLetterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "coverletter.delete")
	defer span.End()

	if err := s.Coach.DeleteCoverLetter(ctx, ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
