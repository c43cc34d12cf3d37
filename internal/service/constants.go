package service

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 2000
)

const (
	systemPrompt = `You are a code generation assistant. Output JSON ONLY (no extra commentary) with this exact shape:
{"files":[{"path":"relative/path/filename.ext","content":"file contents as a string"}]}
Rules:
- 'content' must be plain text. Escape characters in JSON as needed.
- If a file is binary, include 'encoding':'base64' and put base64 data in 'content'.
- Output ONLY the JSON object.`

	userPromptTemplate = `Project name: %s
Language/stack: %s
Instructions: %s

Return a JSON object matching the schema above and nothing else.`
)
