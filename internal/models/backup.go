package models

import "time"

const (
	// BackupVersion is written by Export. Version 1 documents predate profiles.
	BackupVersion       = 2
	BackupVersionLegacy = 1
)

// ImportMode selects how a backup is applied.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// Backup is the portable export document shared with the web app.
type Backup struct {
	Version    int        `json:"version"`
	ExportDate time.Time  `json:"exportDate"`
	Data       BackupData `json:"data"`
}

// BackupData groups the four record stores.
type BackupData struct {
	Behaviors       []BehaviorEntry  `json:"behaviors"`
	Reinforcers     []Reinforcer     `json:"reinforcers"`
	CrisisProtocols []CrisisProtocol `json:"crisisProtocols"`
	Profiles        []Profile        `json:"profiles"`
}

// ImportResult reports how many records of each store were written.
type ImportResult struct {
	Version         int        `json:"version"`
	Mode            ImportMode `json:"mode"`
	Behaviors       int        `json:"behaviors"`
	Reinforcers     int        `json:"reinforcers"`
	CrisisProtocols int        `json:"crisisProtocols"`
	Profiles        int        `json:"profiles"`
}
