// Package i18n negotiates the visitor's language and localizes artworks and
// user-facing messages into French, English or Wolof.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/lehigh-university-libraries/museetour/internal/models"
)

var (
	French  = language.French
	English = language.English
	Wolof   = language.MustParse("wo")

	// Default is used when nothing the visitor asked for is available
	Default = French
)

// Supported lists the languages the museum is described in, default first
var Supported = []language.Tag{French, English, Wolof}

var matcher = language.NewMatcher(Supported)

// Message keys shared by the scanner and navigation flows
const (
	MsgScanRetry        = "scan.retry"
	MsgScanUnrecognized = "scan.unrecognized"
	MsgScanNotFound     = "scan.not_found"
	MsgScanDetected     = "scan.detected"
	MsgCameraDenied     = "camera.denied"
	MsgCameraNoCamera   = "camera.no_camera"
	MsgCameraError      = "camera.error"
	MsgCameraUnsupport  = "camera.unsupported"
)

var messages = map[string]map[language.Tag]string{
	MsgScanRetry: {
		French:  "Lecture incomplète, maintenez le QR code devant la caméra.",
		English: "Partial read, keep the QR code in front of the camera.",
		Wolof:   "Jàng bi matul, téyeel QR code bi ci kanam kamera bi.",
	},
	MsgScanUnrecognized: {
		French:  "Ce QR code n'est pas reconnu par le musée.",
		English: "This QR code is not recognized by the museum.",
		Wolof:   "Musée bi xamul QR code bii.",
	},
	MsgScanNotFound: {
		French:  "Œuvre introuvable, découvrez la collection.",
		English: "Artwork not found, browse the collection instead.",
		Wolof:   "Liggéey bi feeñul, xoolal mbooloo mi.",
	},
	MsgScanDetected: {
		French:  "Œuvre trouvée ! Redirection vers la fiche détaillée...",
		English: "Artwork found! Opening its page...",
		Wolof:   "Liggéey bi feeñ na! Nu ngi lay yóbbu ci xët wi...",
	},
	MsgCameraDenied: {
		French:  "Accès à la caméra refusé. Autorisez l'accès pour scanner les QR codes des œuvres.",
		English: "Camera access denied. Allow access to scan the artworks' QR codes.",
		Wolof:   "Bàyyiwuñu kamera bi. May ko ngir scanner QR code yi.",
	},
	MsgCameraNoCamera: {
		French:  "Aucune caméra arrière trouvée. Utilisez un appareil avec caméra.",
		English: "No rear camera found. Use a device with a camera.",
		Wolof:   "Amul kamera ginnaaw. Jëfandikool benn masin bu am kamera.",
	},
	MsgCameraError: {
		French:  "Erreur d'accès à la caméra. Vérifiez les permissions et réessayez.",
		English: "Camera error. Check permissions and try again.",
		Wolof:   "Njuumte ci kamera bi. Seetal ndigal yi te jéemaat.",
	},
	MsgCameraUnsupport: {
		French:  "Votre navigateur ne supporte pas l'accès à la caméra.",
		English: "Your browser does not support camera access.",
		Wolof:   "Sa navigateur manul jëfandikoo kamera bi.",
	},
}

var msgCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(Default))
	for key, byLang := range messages {
		for tag, msg := range byLang {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("i18n: message %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Negotiate picks the best supported language from an explicit choice
// (query parameter or cookie) and the Accept-Language header, in that order
func Negotiate(explicit, acceptLanguage string) language.Tag {
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			if _, idx, conf := matcher.Match(tag); conf >= language.High {
				return Supported[idx]
			}
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if _, idx, conf := matcher.Match(tags...); conf != language.No {
				return Supported[idx]
			}
		}
	}
	return Default
}

// Code returns the short language code used in catalog descriptions
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Message returns the localized text for key
func Message(tag language.Tag, key string) string {
	p := message.NewPrinter(tag, message.Catalog(msgCatalog))
	return p.Sprintf(key)
}

// Localize flattens an artwork into the given language, falling back to
// French and then to whichever description exists
func Localize(a models.Artwork, tag language.Tag) models.ArtworkView {
	view := models.ArtworkView{
		ID:         a.ID,
		Title:      a.Title,
		Author:     a.Author,
		Category:   a.Category,
		Date:       a.Date,
		Location:   a.Location,
		Room:       a.Room,
		ImageURL:   a.ImageURL,
		AudioURL:   a.AudioURL,
		VideoURL:   a.VideoURL,
		Model3DURL: a.Model3DURL,
		Position:   a.Position,
		Details:    a.Details,
		Languages:  a.Languages(),
	}

	d, ok := a.Description(Code(tag))
	if !ok {
		d, ok = a.Description(Code(Default))
	}
	if !ok && len(a.Descriptions) > 0 {
		d, ok = a.Descriptions[0], true
	}
	if !ok {
		view.Lang = Code(Default)
		return view
	}

	view.Lang = d.Lang
	view.Description = d.Text
	view.History = d.History
	if d.Title != "" {
		view.Title = d.Title
	}
	if d.AudioURL != "" {
		view.AudioURL = d.AudioURL
	}
	if d.VideoURL != "" {
		view.VideoURL = d.VideoURL
	}
	return view
}
