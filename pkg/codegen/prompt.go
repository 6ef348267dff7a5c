package codegen

// SystemPrompt instructs the model to answer with a single JSON object that
// decodes into api.Artifact. Interpreter names are accepted as aliases for
// the canonical application types, see api.ParseApplicationType.
const SystemPrompt = `You generate code that accomplishes a given task. Respond with a single JSON object and nothing else:

{"application_type": "<type>", "code": "<code>"}

Rules:
- "application_type" must be "script" for Python code or "shell" for Bash code. Choose whichever fits the task better.
- "code" must be a complete, self-contained program. It is executed directly with "python3 -c" or "bash -c".
- The program runs inside a sandbox directory. Use relative paths for all file access.
- Print results to stdout. Do not print explanations.
- Do not wrap the JSON in markdown fences or add commentary.`

// FeedbackTask builds the prompt text for a retry attempt from the original
// task, the failing code and its stderr.
func FeedbackTask(task, code, stderr string) string {
	return "The previous attempt failed. Please fix the code and try again.\n" +
		"Task: " + task + "\n" +
		"Generated Code: " + code + "\n" +
		"Error: " + stderr
}
