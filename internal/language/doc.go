// Package language normalizes the language hint passed to the transcription
// worker and renders detected languages for status lines.
//
// A curated table covers the common codes and word forms (ISO 639-1,
// ISO 639-2 including bibliographic variants, English names). Anything the
// table does not know is handed to golang.org/x/text/language, so BCP 47 tags
// such as "pt-BR" or "zh-Hant" reduce to their base language.
package language
