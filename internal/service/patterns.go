package service

import "regexp"

// DefaultLanguage is the fallback pattern table.
const DefaultLanguage = "eng"

// rolePatterns holds the ordered pattern lists for one language, most
// specific pattern first. Patterns match the terminal segment of a column
// path, lower-cased.
type rolePatterns struct {
	Title        []*regexp.Regexp
	Description  []*regexp.Regexp
	LocationName []*regexp.Regexp
	Timestamp    []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// languagePatterns is built once at package init; keys are ISO-639-3-like
// language codes as returned by the external language detector.
var languagePatterns = map[string]rolePatterns{
	"eng": {
		Title: compileAll(
			`^title$`, `^event[_ ]?title$`, `^event[_ ]?name$`, `^name$`,
			`^headline$`, `^subject$`, `^label$`, `^summary$`,
		),
		Description: compileAll(
			`^description$`, `^desc$`, `^details?$`, `^body$`, `^text$`,
			`^notes?$`, `^comments?$`, `^info$`, `^about$`,
		),
		LocationName: compileAll(
			`^venue$`, `^venue[_ ]?name$`, `^location[_ ]?name$`, `^place$`,
			`^place[_ ]?name$`, `^site$`, `^city$`, `^town$`,
		),
		Timestamp: compileAll(
			`^timestamp$`, `^date[_ ]?time$`, `^event[_ ]?date$`,
			`^start[_ ]?date$`, `^start[_ ]?time$`, `^date$`, `^time$`,
			`^created[_ ]?at$`, `^updated[_ ]?at$`, `^when$`,
		),
	},
	"deu": {
		Title: compileAll(
			`^titel$`, `^veranstaltungstitel$`, `^veranstaltungsname$`,
			`^name$`, `^bezeichnung$`, `^ueberschrift$`, `^überschrift$`,
		),
		Description: compileAll(
			`^beschreibung$`, `^details?$`, `^inhalt$`, `^text$`,
			`^anmerkung(en)?$`, `^kommentar(e)?$`, `^hinweis(e)?$`,
		),
		LocationName: compileAll(
			`^veranstaltungsort$`, `^ortsname$`, `^ort$`, `^standort$`,
			`^stadt$`, `^gemeinde$`,
		),
		Timestamp: compileAll(
			`^zeitstempel$`, `^datum[_ ]?uhrzeit$`, `^veranstaltungsdatum$`,
			`^startdatum$`, `^beginn$`, `^datum$`, `^uhrzeit$`, `^zeit$`,
		),
	},
	"fra": {
		Title: compileAll(
			`^titre$`, `^nom$`, `^intitule$`, `^intitulé$`, `^libelle$`, `^libellé$`,
		),
		Description: compileAll(
			`^description$`, `^details?$`, `^détails?$`, `^texte$`, `^contenu$`,
			`^remarques?$`, `^commentaires?$`,
		),
		LocationName: compileAll(
			`^lieu$`, `^nom[_ ]?du[_ ]?lieu$`, `^emplacement$`, `^site$`, `^ville$`,
		),
		Timestamp: compileAll(
			`^horodatage$`, `^date[_ ]?heure$`, `^date[_ ]?de[_ ]?debut$`,
			`^date$`, `^heure$`, `^debut$`, `^début$`,
		),
	},
	"spa": {
		Title: compileAll(
			`^titulo$`, `^título$`, `^nombre$`, `^encabezado$`, `^etiqueta$`,
		),
		Description: compileAll(
			`^descripcion$`, `^descripción$`, `^detalles?$`, `^texto$`,
			`^notas?$`, `^comentarios?$`,
		),
		LocationName: compileAll(
			`^lugar$`, `^nombre[_ ]?del[_ ]?lugar$`, `^sitio$`, `^ciudad$`, `^local$`,
		),
		Timestamp: compileAll(
			`^marca[_ ]?de[_ ]?tiempo$`, `^fecha[_ ]?hora$`, `^fecha[_ ]?de[_ ]?inicio$`,
			`^fecha$`, `^hora$`, `^inicio$`,
		),
	},
}

// patternsForLanguage returns the table for a language code, falling back to
// English when the language has no table.
func patternsForLanguage(lang string) rolePatterns {
	if p, ok := languagePatterns[lang]; ok {
		return p
	}
	return languagePatterns[DefaultLanguage]
}

// Geo column-name patterns. These are language-independent: coordinate
// column headers are near-universally English or abbreviated.
var (
	latNamePatterns = compileAll(
		`^lat$`, `^latitude$`, `^lat[_ ]?deg(rees)?$`, `^geo[_ ]?lat(itude)?$`,
		`^breitengrad$`, `^y$`,
	)
	lonNamePatterns = compileAll(
		`^lon$`, `^lng$`, `^long$`, `^longitude$`, `^lon[_ ]?deg(rees)?$`,
		`^geo[_ ]?lon(gitude)?$`, `^laengengrad$`, `^längengrad$`, `^x$`,
	)
	combinedNamePatterns = compileAll(
		`^coordinates?$`, `^coords?$`, `^lat[_ ]?lon$`, `^lat[_ ]?lng$`,
		`^location$`, `^position$`, `^geo[_ ]?point$`, `^point$`, `^geo$`,
	)
	// Free-text location patterns feed the geocoding candidate role.
	addressNamePatterns = compileAll(
		`^address$`, `^full[_ ]?address$`, `^street[_ ]?address$`, `^location$`,
		`^adresse$`, `^anschrift$`, `^direccion$`, `^dirección$`,
	)
	// Column names that hint at geo/date content for schema similarity.
	geoHintPattern  = regexp.MustCompile(`(?i)^(lat|lng|lon|long|latitude|longitude|coordinates?|coords?|geo.*|location|position)$`)
	dateHintPattern = regexp.MustCompile(`(?i)^(date|datum|time|timestamp|datetime|created.*|updated.*|start.*date|end.*date|fecha|heure)$`)
)

// matchPatternIndex returns the index of the first pattern matching name,
// or -1. Earlier patterns are more specific.
func matchPatternIndex(patterns []*regexp.Regexp, name string) int {
	for i, p := range patterns {
		if p.MatchString(name) {
			return i
		}
	}
	return -1
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	return matchPatternIndex(patterns, name) >= 0
}
