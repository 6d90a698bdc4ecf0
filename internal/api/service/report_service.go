package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studio"
	"studio/pkg"
)

// ReportService emails dataset exports through the provider chain, so a
// Brevo outage falls back to plain SMTP.
type ReportService struct {
	datasetService *DatasetService
	logger         zerolog.Logger
}

func NewReportService(datasetService *DatasetService) *ReportService {
	return &ReportService{
		datasetService: datasetService,
		logger:         studio.Logger,
	}
}

// SendDatasetReport exports the dataset to CSV and mails it.
func (slf *ReportService) SendDatasetReport(ctx context.Context, datasetID uint, recipients []string, note string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	dataset, err := slf.datasetService.FindByID(datasetID)
	if err != nil {
		return err
	}
	f, err := slf.datasetService.Frame(ctx, datasetID)
	if err != nil {
		return err
	}
	csvData, err := f.CSVString()
	if err != nil {
		return fmt.Errorf("failed to export dataset: %w", err)
	}

	body := fmt.Sprintf("Attached: %s (%d rows), exported %s.", dataset.Name, f.NumRows(), time.Now().Format("2006-01-02 15:04"))
	if note != "" {
		body = note + "\n\n" + body
	}

	msg := pkg.EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("Dataset report: %s", dataset.Name),
		Body:    body,
		Attachments: []pkg.Attachment{
			pkg.AttachmentFromCSV(dataset.TableName+".csv", csvData),
		},
	}
	if err := pkg.SendEmail(msg); err != nil {
		slf.logger.Error().Err(err).Uint("datasetId", datasetID).Msg("Error sending dataset report")
		return err
	}
	slf.logger.Info().Uint("datasetId", datasetID).Strs("to", recipients).Msg("Dataset report sent")
	return nil
}
