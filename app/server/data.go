package server

import "negosim/app/service/negotiation"

type newSessionRequest struct {
	StudentID string `json:"student_id"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

type evaluateRequest struct {
	SessionID  string                      `json:"session_id"`
	FinalTerms negotiation.EvaluationTerms `json:"final_terms"`
}
