// Package resumemailer sends personalized job-application emails, with a
// resume attached, to HR contacts read from a CSV file.
//
// Key subpackages:
//
//	github.com/pixelvide/resume-mailer/pkg/contact   - CSV contact loading and row validation
//	github.com/pixelvide/resume-mailer/pkg/compose   - Fixed application template and subject line
//	github.com/pixelvide/resume-mailer/pkg/mail      - MIME building and SMTP submission with failure kinds
//	github.com/pixelvide/resume-mailer/pkg/campaign  - Paced, sequential run over all contacts
//	github.com/pixelvide/resume-mailer/pkg/config    - Campaign configuration
//
// Example Usage:
//
//	resume-mailer send \
//		--sender_email me@gmail.com \
//		--gmail_password "app password" \
//		--csv_file hr_contacts.csv \
//		--resume_file resume.pdf
//
// The command exits with status 1 when no email was sent.
package resumemailer
