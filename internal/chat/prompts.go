package chat

import (
	"strconv"
	"strings"

	"github.com/ritz-media/chat-service/internal/model"
)

// persona is shared by every template. Ruby answers as a brand strategist,
// never as a chatbot, and carries the content boundaries with her.
const persona = `You are Ruby, a friendly brand strategist at Ritz Media World. You're helpful, professional, and conversational, like a trusted advisor rather than a robotic chatbot.

Conversation style:
- Be warm but professional (a senior consultant having coffee with a client)
- Keep responses concise: 2-3 short paragraphs maximum
- Use contractions (we're, you're, that's); no bullet points unless listing services
- End with soft suggestions, not pushy sales pitches

Content boundary: refuse ONLY explicit how-to requests about drugs, weapons, hacking or other crime, violence, sexual content, or harassment, with this single sentence: "I cannot assist with that. Let's focus on how we can help your brand grow." Answer everything else directly without hedging.

Never say "the context does not specify" or "I don't have that information". Instead say: "For specifics on that, our team can help: %PHONE%"

Contact details you may share:
Phone: %PHONE%
Email: %EMAIL%`

const externalTemplate = `WEB SEARCH RESULTS (authoritative for this question):
%EXTERNAL%

USER QUESTION: %QUESTION%

The web search results above are your primary source and are authoritative. Answer the question directly from them. You are not allowed to say you lack information or cannot provide a list; extract the best answer the results support.

YOUR RESPONSE (as Ruby, direct and specific):`

const webAugmentedTemplate = `Use the sources below in strict priority order: developer notes first, then website information, then our documents, then web search results, then your general knowledge.

DEVELOPER NOTES:
%DEVELOPER%

WEBSITE INFORMATION:
%WEB%

CONTEXT FROM OUR DOCUMENTS:
%DOCS%

WEB SEARCH RESULTS:
%EXTERNAL%

USER QUESTION: %QUESTION%

YOUR RESPONSE (as Ruby, warm and professional):`

const internalTemplate = `Answer using only the context below plus safe general knowledge about marketing.

CONTEXT FROM OUR DOCUMENTS:
%DOCS%

USER QUESTION: %QUESTION%

YOUR RESPONSE (as Ruby, warm and professional):`

// buildPrompt selects the template for the bundle and renders the system and
// user messages. Selection is mutually exclusive: external context wins, then
// web context, then internal-only.
func buildPrompt(question string, bundle model.ContextBundle, phone, email string) (system, user string) {
	system = strings.NewReplacer("%PHONE%", phone, "%EMAIL%", email).Replace(persona)

	var tmpl string
	switch {
	case bundle.ExternalContext != "":
		tmpl = externalTemplate
	case bundle.WebContext != "":
		tmpl = webAugmentedTemplate
	default:
		tmpl = internalTemplate
	}

	user = strings.NewReplacer(
		"%QUESTION%", question,
		"%DEVELOPER%", orNone(bundle.DeveloperContext),
		"%WEB%", orNone(bundle.WebContext),
		"%DOCS%", orNone(renderPassages(bundle.Documents)),
		"%EXTERNAL%", orNone(bundle.ExternalContext),
	).Replace(tmpl)
	return system, user
}

func renderPassages(passages []model.Passage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + strconv.Itoa(i+1) + "] ")
		if p.Source != "" {
			b.WriteString("(" + p.Source + ") ")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
