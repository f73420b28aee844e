package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	DocumentStatusPending  = "pending"
	DocumentStatusUploaded = "uploaded"
	DocumentStatusFailed   = "failed"

	IndexStatusBuilding     = "building"
	IndexStatusActive       = "active"
	IndexStatusStale        = "stale"
	IndexStatusDeleteFailed = "delete_failed"

	AssistantInstructionV1 = `You are a helpful company assistant.

Rules:
1. For questions about the company, its products, prices or contacts, use the knowledge base
2. Answer general questions from your own knowledge
3. Give thorough, detailed answers that cover the topic fully
4. Always stay polite and professional
5. If asked to proofread a text, point out the mistakes and suggest corrections
6. If asked to write or rework a text, deliver the finished result

Formatting:
- Use [br] for a line break
- Use [br][br] to separate paragraphs
- Structure answers with headings, lists and paragraphs`

	TitlePromptV1 = `Generate a short, clean title for a chat based on the user's first message.

Rules:
- At most 5-6 words
- No quotes or extra symbols
- Reflect the topic of the question
- Start with a lowercase letter

User message: %s

Chat title:`
)
