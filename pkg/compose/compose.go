// Package compose renders the personalized application email.
package compose

import (
	"fmt"
	"strings"
	"text/template"
)

// SubjectPrefix is prepended to the company name to form the subject line
const SubjectPrefix = "Frontend Internship Application – "

const bodyTemplate = `Dear {{.Name}},

I hope this email finds you well. I am writing to express my strong interest in frontend development internship opportunities at {{.Company}}.

As a passionate frontend developer with experience in modern web technologies including React, JavaScript, HTML5, and CSS3, I am excited about the possibility of contributing to {{.Company}}'s innovative projects while further developing my skills in a professional environment.

Key highlights of my background:
• Proficient in React, JavaScript (ES6+), HTML5, and CSS3
• Experience with responsive design and modern CSS frameworks
• Familiarity with version control (Git) and development tools
• Strong problem-solving skills and attention to detail
• Eager to learn and adapt to new technologies

I have attached my resume for your review, which provides more detailed information about my projects and technical skills. I would greatly appreciate the opportunity to discuss how I can contribute to {{.Company}}'s frontend development team.

Thank you for considering my application. I look forward to hearing from you and would be happy to provide any additional information you may need.

Best regards,
[Your Name]
[Your Phone Number]
[Your Email Address]

---
This email was sent as part of my internship application process. I apologize if this is not the appropriate contact for internship inquiries and would appreciate being directed to the correct department if needed.
`

var body = template.Must(template.New("body").Option("missingkey=error").Parse(bodyTemplate))

type bodyData struct {
	Name    string
	Company string
}

// Body renders the email body for the given HR contact name and company.
// The output is a pure function of its inputs.
func Body(name, company string) (string, error) {
	var sb strings.Builder
	if err := body.Execute(&sb, bodyData{Name: name, Company: company}); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return sb.String(), nil
}

// Subject returns the subject line for an application to company
func Subject(company string) string {
	return SubjectPrefix + company
}
