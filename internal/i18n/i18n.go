// Package i18n holds the user-facing strings of the Xlerion page in the two
// supported languages.
package i18n

import "fmt"

type Lang string

const (
	Spanish Lang = "es"
	English Lang = "en"

	Default = Spanish
)

// Parse returns the language for a user supplied code, or Default.
func Parse(code string) Lang {
	switch Lang(code) {
	case Spanish, English:
		return Lang(code)
	}
	return Default
}

type Messages struct {
	Title                string
	Subtitle             string
	Description          string
	Placeholder          string
	ConsultButton        string
	Consulting           string
	SaveButton           string
	NoQueryOrResponse    string
	ResponseTitle        string
	RecommendationTitle  string
	ChartTitle           string
	HistoryTitle         string
	NoSavedQueries       string
	YourQuery            string
	XlerionResponse      string
	DateUnknown          string
	QueryPlaceholder     string
	NoClearResponse      string
	UnexpectedFormat     string
	UnsupportedChart     string
	APIError             string
	RecommendationError  string
	DBNotReady           string
	SaveError            string
	QuotaWriteError      string
	ConfigError          string
	AuthError            string
	InvalidCredentials   string
	EmailTaken           string
	WeakPassword         string
	InvalidEmail         string
	OAuthUnavailable     string
	UserID               string
	UserStatusGuest      string
	UserStatusRegistered string
	QueriesToday         string
	ShareQuery           string
	SignIn               string
	SignUp               string
	SignOut              string
	Email                string
	Password             string
	OAuthSignIn          string
	AdminPanel           string
	AdminOnly            string
	SourcesTitle         string
	SourceName           string
	SourceURL            string
	SourceAPIKey         string
	SourceDescription    string
	AddSource            string
	DeleteSource         string
	NoSources            string
	InvalidSource        string
	SourceNotFound       string
	QueryNotFound        string
	BackHome             string
	LanguageToggle       string
	InvalidRequest       string
	SignInStartFailed    string
	InvalidOAuthState    string
	ConceptCredit        string

	queryLimitReached string
}

// QueryLimitReached formats the daily limit message for limit.
func (m Messages) QueryLimitReached(limit int) string {
	return fmt.Sprintf(m.queryLimitReached, limit)
}

var catalog = map[Lang]Messages{
	Spanish: {
		Title:                "Xlerion",
		Subtitle:             "La Inteligencia para el Desarrollo de Colombia",
		Description:          "Xlerion es una inteligencia artificial avanzada con conocimiento profundo en todos los campos importantes para el manejo óptimo de sociedades. Ofrece guía y recomendaciones para la prosperidad y estabilidad social en Colombia, con un enfoque en la credibilidad y confianza.",
		Placeholder:          "Pregunta a Xlerion sobre economía, salud, educación, seguridad, etc., en Colombia...",
		ConsultButton:        "Consultar a Xlerion",
		Consulting:           "Consultando a Xlerion...",
		SaveButton:           "Guardar Consulta",
		NoQueryOrResponse:    "No hay consulta o respuesta para guardar.",
		ResponseTitle:        "Respuesta de Xlerion:",
		RecommendationTitle:  "Recomendación Sintetizada de Xlerion:",
		ChartTitle:           "Gráfico de Xlerion:",
		HistoryTitle:         "Historial de Consultas Guardadas",
		NoSavedQueries:       "Aún no tienes consultas guardadas. ¡Haz una y guárdala!",
		YourQuery:            "Tu Consulta:",
		XlerionResponse:      "Respuesta de Xlerion:",
		DateUnknown:          "Fecha desconocida",
		QueryPlaceholder:     "Por favor, ingresa tu consulta para Xlerion.",
		NoClearResponse:      "Xlerion no ha encontrado una respuesta clara en este momento. Intenta reformular tu consulta.",
		UnexpectedFormat:     "Xlerion respondió en un formato inesperado. Intenta reformular tu consulta.",
		UnsupportedChart:     "Tipo de gráfico no soportado",
		APIError:             "Error al conectar con Xlerion. Revisa tu conexión o intenta más tarde.",
		RecommendationError:  "Error al generar la recomendación.",
		DBNotReady:           "La base de datos no está lista. Por favor, espera o recarga la página.",
		SaveError:            "Error al guardar la consulta. Intenta de nuevo.",
		QuotaWriteError:      "No se pudo actualizar el contador de consultas.",
		ConfigError:          "Error de configuración: faltan claves. Revisa tu archivo .env.",
		AuthError:            "Error de autenticación. Se usará un identificador temporal.",
		InvalidCredentials:   "Correo o contraseña incorrectos.",
		EmailTaken:           "Ese correo ya está registrado.",
		WeakPassword:         "La contraseña debe tener al menos 6 caracteres.",
		InvalidEmail:         "El correo no es válido.",
		OAuthUnavailable:     "El inicio de sesión externo no está configurado.",
		UserID:               "ID de Usuario:",
		UserStatusGuest:      "Estado: Invitado",
		UserStatusRegistered: "Estado: Registrado",
		QueriesToday:         "Consultas hoy:",
		ShareQuery:           "Compartir",
		SignIn:               "Iniciar sesión",
		SignUp:               "Registrarse",
		SignOut:              "Cerrar sesión",
		Email:                "Correo",
		Password:             "Contraseña",
		OAuthSignIn:          "Continuar con proveedor externo",
		AdminPanel:           "Panel de administración",
		AdminOnly:            "Solo los administradores pueden gestionar fuentes.",
		SourcesTitle:         "Fuentes externas",
		SourceName:           "Nombre",
		SourceURL:            "URL",
		SourceAPIKey:         "Clave API",
		SourceDescription:    "Descripción",
		AddSource:            "Agregar fuente",
		DeleteSource:         "Eliminar",
		NoSources:            "No hay fuentes registradas.",
		InvalidSource:        "La fuente necesita un nombre y una URL http(s) válida.",
		SourceNotFound:       "La fuente no existe.",
		QueryNotFound:        "La consulta guardada no existe.",
		BackHome:             "Volver a Xlerion",
		LanguageToggle:       "English",
		InvalidRequest:       "La solicitud no es válida.",
		SignInStartFailed:    "No se pudo iniciar el inicio de sesión. Inténtalo de nuevo.",
		InvalidOAuthState:    "La sesión de inicio de sesión expiró o no es válida. Vuelve a intentarlo.",
		ConceptCredit:        "Concepto de \"Xlerion\" creado por el usuario.",
		queryLimitReached:    "Límite de %d consultas diarias alcanzado. Regístrate para más.",
	},
	English: {
		Title:                "Xlerion",
		Subtitle:             "The Intelligence for Colombia's Development",
		Description:          "Xlerion is an advanced artificial intelligence with deep knowledge in all important fields for the optimal management of societies. It offers guidance and recommendations for social prosperity and stability in Colombia, focusing on credibility and trust.",
		Placeholder:          "Ask Xlerion about economy, health, education, security, etc., in Colombia...",
		ConsultButton:        "Consult Xlerion",
		Consulting:           "Consulting Xlerion...",
		SaveButton:           "Save Query",
		NoQueryOrResponse:    "No query or response to save.",
		ResponseTitle:        "Xlerion's Response:",
		RecommendationTitle:  "Xlerion's Synthesized Recommendation:",
		ChartTitle:           "Xlerion's Chart:",
		HistoryTitle:         "Saved Queries History",
		NoSavedQueries:       "You don't have any saved queries yet. Make one and save it!",
		YourQuery:            "Your Query:",
		XlerionResponse:      "Xlerion's Response:",
		DateUnknown:          "Unknown date",
		QueryPlaceholder:     "Please enter your query for Xlerion.",
		NoClearResponse:      "Xlerion has not found a clear answer at this moment. Try rephrasing your query.",
		UnexpectedFormat:     "Xlerion answered in an unexpected format. Try rephrasing your query.",
		UnsupportedChart:     "Unsupported chart type",
		APIError:             "Error connecting with Xlerion. Check your connection or try again later.",
		RecommendationError:  "Error generating the recommendation.",
		DBNotReady:           "Database is not ready. Please wait or reload the page.",
		SaveError:            "Error saving query. Please try again.",
		QuotaWriteError:      "Could not update the query counter.",
		ConfigError:          "Configuration error: missing keys. Check your .env file.",
		AuthError:            "Authentication error. A temporary identifier will be used.",
		InvalidCredentials:   "Wrong email or password.",
		EmailTaken:           "That email is already registered.",
		WeakPassword:         "The password must be at least 6 characters long.",
		InvalidEmail:         "The email address is not valid.",
		OAuthUnavailable:     "External sign-in is not configured.",
		UserID:               "User ID:",
		UserStatusGuest:      "Status: Guest",
		UserStatusRegistered: "Status: Registered",
		QueriesToday:         "Queries today:",
		ShareQuery:           "Share",
		SignIn:               "Sign in",
		SignUp:               "Sign up",
		SignOut:              "Sign out",
		Email:                "Email",
		Password:             "Password",
		OAuthSignIn:          "Continue with external provider",
		AdminPanel:           "Admin panel",
		AdminOnly:            "Only administrators can manage sources.",
		SourcesTitle:         "External sources",
		SourceName:           "Name",
		SourceURL:            "URL",
		SourceAPIKey:         "API key",
		SourceDescription:    "Description",
		AddSource:            "Add source",
		DeleteSource:         "Delete",
		NoSources:            "No sources registered.",
		InvalidSource:        "A source needs a name and a valid http(s) URL.",
		SourceNotFound:       "The source does not exist.",
		QueryNotFound:        "The saved query does not exist.",
		BackHome:             "Back to Xlerion",
		LanguageToggle:       "Español",
		InvalidRequest:       "The request is not valid.",
		SignInStartFailed:    "Sign-in could not be started. Please try again.",
		InvalidOAuthState:    "The sign-in attempt expired or is not valid. Please try again.",
		ConceptCredit:        "\"Xlerion\" concept created by the user.",
		queryLimitReached:    "Daily limit of %d queries reached. Register for more.",
	},
}

// For returns the catalog for lang, falling back to Default.
func For(lang Lang) Messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog[Default]
}
