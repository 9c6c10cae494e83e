package llm

import (
	"fmt"
	"strings"

	"github.com/anigil002/trackerupdates/internal/models"
)

// maxBodyChars bounds the email body sent to the model.
const maxBodyChars = 2000

func buildEmailPrompt(msg models.EmailMessage) string {
	body := msg.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	var b strings.Builder
	b.WriteString("You are a recruitment assistant. Analyze this email and extract relevant recruitment information.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "From: %s <%s>\n", msg.SenderName, msg.Sender)
	fmt.Fprintf(&b, "Body:\n%s\n\n", body)
	b.WriteString(`Extract any of the following that are present and return ONLY a JSON object.
Omit keys that are not mentioned; never invent values.

Possible keys:
- "candidate_name": full name of a candidate
- "position": job title or position name
- "job_id": a job reference like JOB-250310-001
- "email": candidate email address
- "mobile": candidate phone number
- "cv_source": where the CV came from (e.g. LinkedIn, Referral, Email)
- "current_location": where the candidate is currently based
- "nationality": candidate nationality
- "notice_period": candidate notice period
- "interview_date": date of a scheduled interview
- "interview_time": time of a scheduled interview
- "interview_result": outcome of an interview (e.g. passed, rejected, pending)
- "feedback": hiring manager feedback text
- "offer_details": salary or package details of an offer
- "hiring_manager": name of the hiring manager
- "project": project name
- "location": job location or country

Return only the JSON object, no explanation.`)
	return b.String()
}

func buildCommandPrompt(command string) string {
	var b strings.Builder
	b.WriteString("You are a recruitment assistant. Interpret this instruction and return ONLY a JSON object with an \"action\" and \"parameters\".\n\n")
	fmt.Fprintf(&b, "Instruction: %s\n\n", command)
	b.WriteString(`Valid actions:
- "add_candidate": parameters may include candidate_name, position, job_id, email, mobile, cv_source
- "update_status": parameters may include candidate_name, job_id, status, feedback
- "add_hiring_manager": parameters may include name, email, department
- "add_project": parameters may include name, client, description
- "search": parameters may include query, job_title, candidate_name, status, location
- "schedule_interview": parameters may include candidate_name, interview_date, interview_time

Respond with JSON of the form {"action": "...", "parameters": {...}} and nothing else.`)
	return b.String()
}
