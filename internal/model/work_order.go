package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Work order priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Work order statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// WorkOrder is a maintenance task tracked by the work-order API and stored
// in the `work_orders` table.
type WorkOrder struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	Title          string     `json:"title" gorm:"size:255;not null"`
	Description    string     `json:"description" gorm:"type:text;not null"`
	Priority       string     `json:"priority" gorm:"size:20;not null;default:medium;index"`
	Status         string     `json:"status" gorm:"size:20;not null;default:pending;index"`
	AssignedTo     string     `json:"assignedTo" gorm:"size:100;index"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
	ActualHours    *float64   `json:"actualHours,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	EquipmentID    string     `json:"equipmentId" gorm:"size:50"`
	Location       string     `json:"location" gorm:"size:100"`
	Cost           *float64   `json:"cost,omitempty"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedBy      string     `json:"createdBy" gorm:"size:36;index"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a random UUID and fills default priority/status.
func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}
	if w.Status == "" {
		w.Status = StatusPending
	}
	return nil
}

// WorkOrderStats aggregates work orders by status.
type WorkOrderStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}
