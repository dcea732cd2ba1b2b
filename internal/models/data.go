package models

// Известные коды услуг точки. Порядок фиксирован и используется
// нормализацией при фильтрации входных данных.
const (
	ServiceMeetup   = "meetup"   // самовывоз / встреча
	ServiceDelivery = "delivery" // доставка по городу
	ServiceShip     = "ship"     // отправка почтой
)

// KnownServices возвращает список всех допустимых услуг.
func KnownServices() []string {
	return []string{ServiceMeetup, ServiceDelivery, ServiceShip}
}

// Типы медиа карточки точки.
const (
	MediaNone  = "none"
	MediaPhoto = "photo"
	MediaGif   = "gif"
	MediaVideo = "video"
)

// Происхождение отправки для региона.
const (
	ShipOriginItaly = "italy"
	ShipOriginEU    = "eu"
)

// ServiceLabels содержит отображаемые названия услуг.
// Пустые значения заполняются нормализацией дефолтами.
type ServiceLabels struct {
	Meetup   string `json:"meetup"`
	Delivery string `json:"delivery"`
	Ship     string `json:"ship"`
}

// SocialLink представляет одну ссылку на соцсеть точки.
// Записи без label или url отбрасываются нормализацией.
type SocialLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Point представляет карточку точки внутри региона.
type Point struct {
	ID          string       `json:"id"`          // уникален в пределах региона
	Name        string       `json:"name"`        // название точки
	Address     string       `json:"address"`     // адрес (может быть пустым)
	ShipCountry string       `json:"shipCountry"` // страна отправки, максимум 64 символа
	Details     string       `json:"details"`     // свободный текст
	Logo        string       `json:"logo"`        // url логотипа
	MediaType   string       `json:"mediaType"`   // none|photo|gif|video
	MediaURL    string       `json:"mediaUrl"`    // url медиа карточки
	Stars       int          `json:"stars"`       // рейтинг 0..3
	Services    []string     `json:"services"`    // непустое подмножество известных услуг
	Socials     []SocialLink `json:"socials"`     // отфильтрованные соцссылки
}

// Region представляет регион со списком активных точек.
type Region struct {
	ID           string  `json:"id"`           // уникальный slug региона
	Name         string  `json:"name"`         // отображаемое название
	Hubs         string  `json:"hubs"`         // список городов через запятую
	ShipOrigin   string  `json:"shipOrigin"`   // italy|eu
	ActivePoints []Point `json:"activePoints"` // карточки точек
}

// Document представляет весь контент сайта: единый JSON-документ,
// которым владеет datastore. В памяти и на диске хранится только
// нормализованная форма.
type Document struct {
	ServiceLabels     ServiceLabels `json:"serviceLabels"`
	SupportContactURL string        `json:"supportContactUrl"` // ссылка поддержки (только t.me)
	Regions           []Region      `json:"regions"`
}
