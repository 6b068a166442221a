package ai

import "fmt"

const summaryPrompt = "You are an expert in resume writing. Your task is to enhance the professional summary of a resume. " +
	"The summary should be 1-2 sentences highlighting key skills, experience, and career objectives. " +
	"Make it compelling and ATS-friendly and only return text, no options or anything else."

const jobDescriptionPrompt = "You are an expert in resume writing. Your task is to enhance the job description of a resume. " +
	"The job description should be only 1-2 sentences highlighting key responsibilities and achievements. " +
	"Use action verbs and quantifiable results where possible. " +
	"Make it ATS-friendly and only return text, no options or anything else."

const extractionSystemPrompt = "You are an expert AI agent to extract data from resume."

const extractionSchema = `{
  "professional_summary": "",
  "skills": ["skill1", "skill2"],
  "personal_info": {
    "image": "",
    "full_name": "",
    "profession": "",
    "email": "",
    "phone": "",
    "location": "",
    "linkedin": "",
    "website": ""
  },
  "experience": [
    {
      "company": "",
      "position": "",
      "start_date": "YYYY-MM",
      "end_date": "YYYY-MM or empty when is_current is true",
      "description": "",
      "is_current": false
    }
  ],
  "projects": [
    {"name": "", "type": "", "description": ""}
  ],
  "education": [
    {
      "institution": "",
      "degree": "",
      "field": "",
      "graduation_date": "YYYY-MM",
      "gpa": ""
    }
  ]
}`

func extractionUserPrompt(resumeText string) string {
	return fmt.Sprintf("extract data from this resume: %s\n\n"+
		"Provide data in the following JSON format with no additional text before or after, using the following schema keys:\n\n%s\n",
		resumeText, extractionSchema)
}
