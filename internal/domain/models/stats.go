package models

import "time"

// NameCount is one bucket of a group-by count.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// RecentTask is the trimmed task shape shown in the dashboard's activity list.
type RecentTask struct {
	ID                 string    `json:"id"`
	ProblemDescription string    `json:"problemDescription"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	TSP                string    `json:"tsp"`
	LSA                string    `json:"lsa"`
	AssignedTo         *Assignee `json:"assignedTo"`
}

// Assignee is the part of a user shown next to an assigned task.
type Assignee struct {
	Name string `json:"name"`
}

// StatusBucket mirrors NameCount with the "value" key the dashboard chart
// expects.
type StatusBucket struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalTasks         int64          `json:"totalTasks"`
	ResolvedTasks      int64          `json:"resolvedTasks"`
	PendingTasks       int64          `json:"pendingTasks"`
	MonthlyTasks       int64          `json:"monthlyTasks"`
	RecentActivity     []RecentTask   `json:"recentActivity"`
	TSPStats           []NameCount    `json:"tspStats"`
	LSAStats           []NameCount    `json:"lsaStats"`
	StatusDistribution []StatusBucket `json:"statusDistribution"`
}
