package domain

import "strings"

// DefaultTopic is used when the client omits the topic or sends an unknown key.
const DefaultTopic = "general"

// topicPrompts is the fixed system-prompt table. Keys are the topic selectors
// accepted on the chat endpoint.
var topicPrompts = map[string]string{
	"general": "You are LINA, a warm and concise assistant. Answer the user's " +
		"question directly and keep responses under a few short paragraphs.",
	"study": "You are LINA, a patient study coach. Explain concepts step by " +
		"step, check understanding, and suggest one follow-up exercise.",
	"wellbeing": "You are LINA, a supportive wellbeing companion. Listen first, " +
		"respond with empathy, and never give medical diagnoses.",
	"career": "You are LINA, a practical career advisor. Give actionable advice " +
		"grounded in the user's situation and avoid generic platitudes.",
	"finance": "You are LINA, a cautious personal-finance guide. Explain " +
		"trade-offs plainly and remind the user you are not a licensed advisor.",
}

// TopicPrompt resolves the system prompt for a topic selector. Unknown or
// empty selectors fall back to the general prompt.
func TopicPrompt(topic string) string {
	key := strings.ToLower(strings.TrimSpace(topic))
	if prompt, ok := topicPrompts[key]; ok {
		return prompt
	}
	return topicPrompts[DefaultTopic]
}

// Topics lists the known topic selectors.
func Topics() []string {
	keys := make([]string, 0, len(topicPrompts))
	for k := range topicPrompts {
		keys = append(keys, k)
	}
	return keys
}
