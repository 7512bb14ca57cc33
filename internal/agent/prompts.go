package agent

import "fmt"

const systemPrompt = `You are a training advisor agent. Be helpful, concise, and explicit about tool-use decisions.
You have tools: retrieval_text (semantic snippets), retrieval_graph (relations/paths), matcher (exercise ranking), analytics (deterministic aggregations), what_if (counterfactual simulation), and memory (conversation).
You must:
- Identify the user's intent
- Decide which tool is needed and why
- Provide a final answer grounded in tool observations when tools are used
- Cite sources returned by tools using ids/names.`

const routerPrompt = `Given the user question, choose the best tool:
- Use retrieval_text when the user asks for descriptions, recommendations, general info, or factual snippets.
- Use retrieval_graph when the user asks about relationships, dependencies, causes, 'what leads to what', or multi-hop reasoning.
- Use matcher when the user wants exercises ranked against their profile, equipment, or limitations.
- Use analytics when the user wants counts, filters, or aggregations over the exercise catalog or past runs.
- Use what_if when the user asks how recommendations change under a hypothetical profile change.
- Use none when you can answer without retrieval.

Return JSON with keys:
intent: string
tool: one of ["retrieval_text","retrieval_graph","matcher","analytics","what_if","none"]
tool_input: short query to pass into the tool (JSON for matcher/analytics/what_if when the question implies structure)`

const reflectionPrompt = `Reflect on the observation:
- Is the observation sufficient to answer?
- If not, propose a better tool_input for the next step (or switch tool).
Return JSON with keys:
sufficient: boolean
reflection: string
next_tool: one of ["retrieval_text","retrieval_graph","matcher","analytics","what_if","none"]
next_tool_input: string`

func routerUserPrompt(question, memoryText string) string {
	return fmt.Sprintf("Question: %s\n\nConversation memory:\n%s\n\n%s\n", question, memoryText, routerPrompt)
}

func reflectionUserPrompt(question, intent string, tool Tool, toolInput, observation string) string {
	return fmt.Sprintf("User question: %s\nIntent: %s\nTool used: %s\nTool input: %s\n\nObservation:\n%s\n\n%s\n",
		question, intent, tool, toolInput, observation, reflectionPrompt)
}

func answerUserPrompt(question, intent, observation string) string {
	return fmt.Sprintf(`User question: %s

Intent: %s

Most relevant observation:
%s

Write the final answer.
Rules:
- Be concise and actionable.
- If you used retrieval_text, cite sources as [source:<id>] using returned ids/filenames.
- If you used retrieval_graph, cite relations briefly like [graph:Squat->Quads].
- If you used matcher, cite picks like [match:<exercise_id>] and mention key reasons (equipment/injury/goal).
- If you used analytics, cite computed results like [calc].
- If no evidence was found, say so explicitly.
- Do NOT invent sources. If info is missing, say what's missing.
`, question, intent, observation)
}
