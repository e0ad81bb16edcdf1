package datatypes

// Source identifies the platform a content item was ingested from.
type Source string

// Supported content sources.
const (
	SourceGmail     Source = "gmail"
	SourceReddit    Source = "reddit"
	SourceNews      Source = "news"
	SourceWhatsApp  Source = "whatsapp"
	SourceInstagram Source = "instagram"
	SourceTelegram  Source = "telegram"
	SourceCalendar  Source = "calendar"
)

var validSources = map[Source]struct{}{
	SourceGmail:     {},
	SourceReddit:    {},
	SourceNews:      {},
	SourceWhatsApp:  {},
	SourceInstagram: {},
	SourceTelegram:  {},
	SourceCalendar:  {},
}

// IsValid reports whether s is a supported source.
func (s Source) IsValid() bool {
	_, ok := validSources[s]

	return ok
}

// AllSources returns all supported source names in a stable order.
func AllSources() []string {
	return []string{
		string(SourceGmail), string(SourceReddit), string(SourceNews), string(SourceWhatsApp),
		string(SourceInstagram), string(SourceTelegram), string(SourceCalendar),
	}
}
