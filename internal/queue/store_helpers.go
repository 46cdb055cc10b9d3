package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, session_key, experiment, experimental_group, treatment, subject_id, start_date, start_time, behavior_path, photometry_path, plan_json, status, output_path, error_message, error_file, created_at, updated_at, progress_stage, progress_message, last_heartbeat"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		sessionKey       string
		experiment       string
		group            sql.NullString
		treatment        sql.NullString
		subjectID        sql.NullString
		startDate        sql.NullString
		startTime        sql.NullString
		behaviorPath     sql.NullString
		photometryPath   sql.NullString
		planJSON         sql.NullString
		statusStr        string
		outputPath       sql.NullString
		errorMessage     sql.NullString
		errorFile        sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionKey,
		&experiment,
		&group,
		&treatment,
		&subjectID,
		&startDate,
		&startTime,
		&behaviorPath,
		&photometryPath,
		&planJSON,
		&statusStr,
		&outputPath,
		&errorMessage,
		&errorFile,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressMessage,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		SessionKey:      sessionKey,
		Experiment:      experiment,
		Group:           group.String,
		Treatment:       treatment.String,
		SubjectID:       subjectID.String,
		StartDate:       startDate.String,
		StartTime:       startTime.String,
		BehaviorPath:    behaviorPath.String,
		PhotometryPath:  photometryPath.String,
		PlanJSON:        planJSON.String,
		Status:          Status(statusStr),
		OutputPath:      outputPath.String,
		ErrorMessage:    errorMessage.String,
		ErrorFile:       errorFile.String,
		ProgressStage:   progressStage.String,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
