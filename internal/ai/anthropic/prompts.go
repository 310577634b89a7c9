package anthropic

import "fmt"

func matchResumePrompt(resumeText, jobTitle, jobDescription string) string {
	return fmt.Sprintf(`You are an expert technical recruiter. Compare the resume below against the job posting and respond with ONLY a JSON object in this exact shape:

{"score": <0-100 integer fit score>, "summary": "<2-3 sentence assessment>", "strengths": ["<strength>", ...], "gaps": ["<gap>", ...]}

Job title: %s

Job description:
%s

Resume:
%s`, jobTitle, jobDescription, resumeText)
}

func interviewPrompt(jobTitle, jobDescription string, count int) string {
	return fmt.Sprintf(`You are an experienced hiring manager preparing a candidate for an interview. Generate exactly %d interview questions for the role below. Respond with ONLY a JSON array in this exact shape:

[{"text": "<question>", "category": "<behavioral|technical|situational>"}, ...]

Job title: %s

Job description:
%s`, count, jobTitle, jobDescription)
}
