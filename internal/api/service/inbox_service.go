package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/models"
)

// InboxService polls an IMAP mailbox and lands CSV attachments of unseen
// messages as datasets. Processed messages are flagged seen so a restart
// does not re-ingest them.
type InboxService struct {
	datasetService *DatasetService
	logger         zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pollInterval time.Duration
}

func NewInboxService(datasetService *DatasetService) *InboxService {
	ctx, cancel := context.WithCancel(context.Background())
	interval := resolvePollInterval(studio.GetConfig().ImapConfig.PollInterval)
	return &InboxService{
		datasetService: datasetService,
		logger:         studio.Logger,
		ctx:            ctx,
		cancel:         cancel,
		pollInterval:   interval,
	}
}

// resolvePollInterval falls back to five minutes when the configured
// interval is unset. The config value is already a full duration.
func resolvePollInterval(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 5 * time.Minute
	}
	return configured
}

// IsConfigured reports whether the mailbox settings are filled in. An
// unconfigured inbox simply never starts.
func (slf *InboxService) IsConfigured() bool {
	cfg := studio.GetConfig().ImapConfig
	return cfg.Host != "" && cfg.Username != ""
}

// Start begins the polling loop.
func (slf *InboxService) Start() {
	if !slf.IsConfigured() {
		slf.logger.Info().Msg("Mailbox ingestion not configured, skipping")
		return
	}
	slf.logger.Info().Dur("interval", slf.pollInterval).Msg("Starting inbox poller")
	slf.wg.Add(1)
	go slf.loop()
}

// Stop gracefully shuts down the poller.
func (slf *InboxService) Stop() {
	slf.cancel()
	slf.wg.Wait()
	slf.logger.Info().Msg("Inbox poller stopped")
}

func (slf *InboxService) loop() {
	defer slf.wg.Done()

	if err := slf.PollOnce(slf.ctx); err != nil {
		slf.logger.Error().Err(err).Msg("Error polling inbox")
	}

	ticker := time.NewTicker(slf.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-slf.ctx.Done():
			return
		case <-ticker.C:
			if err := slf.PollOnce(slf.ctx); err != nil {
				slf.logger.Error().Err(err).Msg("Error polling inbox")
			}
		}
	}
}

// PollOnce connects, ingests CSV attachments of all unseen messages and
// flags them seen.
func (slf *InboxService) PollOnce(ctx context.Context) error {
	cfg := studio.GetConfig().ImapConfig

	client, err := slf.dial(cfg.Host, cfg.Port)
	if err != nil {
		return fmt.Errorf("IMAP connection failed: %w", err)
	}
	defer client.Close()

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := client.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("failed to select %s: %w", folder, err)
	}

	search, err := client.Search(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	seqNums := search.AllSeqNums()
	if len(seqNums) == 0 {
		return nil
	}
	slf.logger.Info().Int("count", len(seqNums)).Msg("Unseen messages found")

	bodySection := &imap.FetchItemBodySection{}
	seqSet := imap.SeqSetNum(seqNums...)
	messages, err := client.Fetch(seqSet, &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	for _, msg := range messages {
		subject := ""
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
		}
		raw := msg.FindBodySection(bodySection)
		if raw == nil {
			continue
		}
		if err := slf.ingestMessage(ctx, subject, raw); err != nil {
			slf.logger.Error().Err(err).Str("subject", subject).Msg("Error ingesting message attachments")
		}
	}

	if err := client.Store(seqSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close(); err != nil {
		slf.logger.Warn().Err(err).Msg("Error flagging messages seen")
	}
	return nil
}

func (slf *InboxService) dial(host string, port int) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	if port == 143 {
		return imapclient.DialInsecure(addr, nil)
	}
	return imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: host},
	})
}

// ingestMessage walks the MIME parts and lands every CSV attachment as a
// dataset named after the attachment.
func (slf *InboxService) ingestMessage(ctx context.Context, subject string, raw []byte) error {
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read message part: %w", err)
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := header.Filename()
		if err != nil || !strings.HasSuffix(strings.ToLower(filename), ".csv") {
			continue
		}

		name := strings.TrimSuffix(filename, ".csv")
		if subject != "" {
			name = subject + " - " + name
		}
		dataset := models.Dataset{
			Name:        name,
			Description: fmt.Sprintf("Ingested from mailbox attachment %s", filename),
			Source:      models.DatasetSourceMailbox,
		}
		if _, err := slf.datasetService.IngestCSV(ctx, dataset, part.Body); err != nil {
			slf.logger.Error().Err(err).Str("attachment", filename).Msg("Error ingesting attachment")
			continue
		}
		slf.logger.Info().Str("attachment", filename).Msg("Mailbox attachment ingested")
	}
	return nil
}
