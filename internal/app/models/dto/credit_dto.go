package dto

import "github.com/yigit/facultycredits/internal/app/models"

// CreateCreditTitleRequest adds a title to the catalog
type CreateCreditTitleRequest struct {
	Title       string      `json:"title" binding:"required,max=200" example:"Journal Publication"`
	Points      int64       `json:"points" binding:"required" example:"10"`
	Sign        models.Sign `json:"sign" binding:"required,credit_sign" example:"positive"`
	Description string      `json:"description" binding:"max=2000" example:"Article in an indexed journal"`
}

// SubmitPositiveRequest is a faculty member's achievement submission
type SubmitPositiveRequest struct {
	CreditTitleID int64  `json:"creditTitleId" binding:"required,min=1" example:"3"`
	AcademicYear  string `json:"academicYear" binding:"omitempty,academic_year" example:"2024-2025"`
	Title         string `json:"title" binding:"required,max=200" example:"Paper in Journal of Ledgers"`
	ProofRef      string `json:"proofRef" binding:"max=300" example:"proofs/2f1c0c3e.pdf"`
}

// IssueNegativeRequest is an admin remark against a faculty member
type IssueNegativeRequest struct {
	FacultyID     int64  `json:"facultyId" binding:"required,min=1" example:"7"`
	CreditTitleID int64  `json:"creditTitleId" binding:"required,min=1" example:"5"`
	AcademicYear  string `json:"academicYear" binding:"omitempty,academic_year" example:"2024-2025"`
	Notes         string `json:"notes" binding:"max=2000" example:"Final grades submitted two weeks late"`
	ProofRef      string `json:"proofRef" binding:"max=300"`
}

// DecisionRequest approves or rejects a pending entry
type DecisionRequest struct {
	Outcome models.EntryStatus `json:"outcome" binding:"required,oneof=approved rejected" example:"approved"`
	Notes   string             `json:"notes" binding:"max=2000"`
}

// FileAppealRequest disputes an approved remark
type FileAppealRequest struct {
	Reason   string `json:"reason" binding:"required,min_nonspace=10,max=2000" example:"Grades were uploaded on time, see registrar log"`
	ProofRef string `json:"proofRef" binding:"max=300"`
}

// AppealDecisionRequest accepts or rejects a pending appeal
type AppealDecisionRequest struct {
	Outcome models.AppealStatus `json:"outcome" binding:"required,oneof=accepted rejected" example:"accepted"`
	Notes   string              `json:"notes" binding:"max=2000"`
}

// RecommendationRequest asks for catalog titles matching an achievement
type RecommendationRequest struct {
	Description string `json:"description" binding:"required,max=2000" example:"Published a paper in an indexed journal"`
	Limit       int    `json:"limit" binding:"omitempty,min=1,max=20" example:"3"`
}

// BalanceResponse is a faculty member's balance
type BalanceResponse struct {
	FacultyID    int64  `json:"facultyId" example:"7"`
	AcademicYear string `json:"academicYear,omitempty" example:"2024-2025"`
	Balance      int64  `json:"balance" example:"10"`
}

// HistoryResponse is a faculty member's approved points grouped by period
type HistoryResponse struct {
	FacultyID int64                  `json:"facultyId" example:"7"`
	GroupBy   models.GroupBy         `json:"groupBy" example:"month"`
	Buckets   []models.HistoryBucket `json:"buckets"`
}

// AcademicYearsResponse lists selectable academic years, newest first
type AcademicYearsResponse struct {
	Current string   `json:"current" example:"2024-2025"`
	Options []string `json:"options"`
}

// ProofResponse carries the reference of an uploaded proof
type ProofResponse struct {
	ProofRef string `json:"proofRef" example:"proofs/2f1c0c3e.pdf"`
}
