package repository

import (
	"records-api/models"

	"github.com/shopspring/decimal"
)

// SeedRecords returns the fixed records every store starts with
func SeedRecords() []models.Record {
	return []models.Record{
		{
			ID:          "REC001",
			Name:        "Enterprise Software License",
			Category:    "Software",
			Status:      "Active",
			Value:       decimal.RequireFromString("15000.00"),
			CreatedDate: "2024-01-15",
			Owner:       "IT Department",
			Description: "Annual enterprise software license renewal",
		},
		{
			ID:          "REC002",
			Name:        "Cloud Infrastructure Services",
			Category:    "Services",
			Status:      "Active",
			Value:       decimal.RequireFromString("8500.00"),
			CreatedDate: "2024-02-20",
			Owner:       "DevOps Team",
			Description: "Monthly cloud hosting and infrastructure services",
		},
		{
			ID:          "REC003",
			Name:        "Security Audit Q1",
			Category:    "Compliance",
			Status:      "Completed",
			Value:       decimal.RequireFromString("12000.00"),
			CreatedDate: "2024-03-10",
			Owner:       "Security Team",
			Description: "Quarterly security audit and compliance review",
		},
		{
			ID:          "REC004",
			Name:        "Training Program 2024",
			Category:    "Training",
			Status:      "In Progress",
			Value:       decimal.RequireFromString("5000.00"),
			CreatedDate: "2024-04-05",
			Owner:       "HR Department",
			Description: "Employee training and development program",
		},
		{
			ID:          "REC005",
			Name:        "Office Equipment Upgrade",
			Category:    "Hardware",
			Status:      "Pending",
			Value:       decimal.RequireFromString("25000.00"),
			CreatedDate: "2024-05-12",
			Owner:       "Facilities",
			Description: "Office workstation and equipment upgrade project",
		},
	}
}
