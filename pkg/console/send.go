package console

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelvide/resume-mailer/pkg/campaign"
	"github.com/pixelvide/resume-mailer/pkg/config"
	"github.com/pixelvide/resume-mailer/pkg/contact"
	"github.com/pixelvide/resume-mailer/pkg/mail"
	"github.com/pixelvide/resume-mailer/pkg/root"
	"github.com/pixelvide/resume-mailer/pkg/telemetry"
)

// ErrNoEmailsSent is returned when a campaign ends without a single accepted email
var ErrNoEmailsSent = errors.New("no emails were sent")

var sendCfg = config.Default()

// newMailer builds the relay client; tests replace it
var newMailer = func(cfg config.SMTPConfig) mail.Mailer {
	return mail.NewSMTPMailer(cfg)
}

var sendCmd = &cobra.Command{
	Use:          "send",
	Short:        "Send the application email to every contact in the CSV file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetry.SetGlobalLogger(os.Stdout)

		tp, err := telemetry.InitTracer("resume-mailer", os.Stderr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("Error shutting down tracer")
			}
		}()

		ctx := log.Logger.WithContext(context.Background())
		return runSend(ctx, sendCfg, tp.Tracer("campaign"))
	},
}

// runSend loads the contacts and runs one campaign over them
func runSend(ctx context.Context, cfg config.CampaignConfig, tracer trace.Tracer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	contacts := contact.Load(ctx, cfg.CSVFile)
	runner := campaign.New(cfg, newMailer(cfg.SMTP()), campaign.WithTracer(tracer))
	if summary := runner.Run(ctx, contacts); !summary.OK() {
		return ErrNoEmailsSent
	}
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendCfg.SenderEmail, "sender_email", "", "Sender's Gmail address.")
	sendCmd.Flags().StringVar(&sendCfg.SenderPassword, "gmail_password", "", "Sender's Gmail App Password.")
	sendCmd.Flags().StringVar(&sendCfg.CSVFile, "csv_file", "", "Path to the CSV file with HR contacts.")
	sendCmd.Flags().StringVar(&sendCfg.ResumeFile, "resume_file", "", "Path to the resume file.")
	for _, name := range []string{"sender_email", "gmail_password", "csv_file", "resume_file"} {
		_ = sendCmd.MarkFlagRequired(name)
	}

	root.GetRoot().AddCommand(sendCmd)
}
