package datastore

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/iudanet/ristopoint/internal/models"
)

// videoExtRe распознает видео-расширения в конце пути или перед query/fragment.
var videoExtRe = regexp.MustCompile(`\.(mp4|webm|mov|m4v)([?#]|$)`)

// Normalize приводит произвольный недоверенный документ (результат
// json.Unmarshal в any) к полностью заполненному Document.
// Функция тотальна: не паникует ни на каком входе, неизвестные поля
// отбрасывает, отсутствующие заполняет дефолтами.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw any) models.Document {
	data := asMap(raw)

	doc := models.Document{
		ServiceLabels:     normalizeServiceLabels(data["serviceLabels"]),
		SupportContactURL: normalizeSupportContactURL(data["supportContactUrl"]),
	}

	regionsRaw, ok := data["regions"].([]any)
	if !ok {
		doc.Regions = DefaultDocument().Regions
		return doc
	}

	doc.Regions = make([]models.Region, 0, len(regionsRaw))
	for i, regionRaw := range regionsRaw {
		doc.Regions = append(doc.Regions, normalizeRegion(regionRaw, i))
	}
	return doc
}

// NormalizeDocument нормализует уже типизированный документ через
// единый путь Normalize, чтобы инварианты задавались в одном месте.
func NormalizeDocument(doc models.Document) models.Document {
	payload, err := json.Marshal(doc)
	if err != nil {
		return Normalize(nil)
	}
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Normalize(nil)
	}
	return Normalize(raw)
}

func normalizeServiceLabels(raw any) models.ServiceLabels {
	labels, ok := raw.(map[string]any)
	if !ok {
		return DefaultDocument().ServiceLabels
	}
	return models.ServiceLabels{
		Meetup:   orDefault(sanitizeString(labels["meetup"]), "Ritiro"),
		Delivery: orDefault(sanitizeString(labels["delivery"]), "Consegna"),
		Ship:     orDefault(sanitizeString(labels["ship"]), "Spedizione"),
	}
}

func normalizeRegion(raw any, index int) models.Region {
	region := asMap(raw)
	regionID := orDefault(sanitizeString(region["id"]), "regione-"+strconv.Itoa(index+1))

	var points []models.Point
	if pointsRaw, ok := region["activePoints"].([]any); ok {
		points = make([]models.Point, 0, len(pointsRaw))
		for i, pointRaw := range pointsRaw {
			points = append(points, normalizePoint(pointRaw, regionID, i))
		}
	} else {
		points = []models.Point{}
	}

	return models.Region{
		ID:           regionID,
		Name:         orDefault(sanitizeString(region["name"]), "Regione "+strconv.Itoa(index+1)),
		Hubs:         sanitizeString(region["hubs"]),
		ShipOrigin:   normalizeShipOrigin(region["shipOrigin"]),
		ActivePoints: points,
	}
}

func normalizePoint(raw any, regionID string, index int) models.Point {
	point := asMap(raw)

	socials := []models.SocialLink{}
	if socialsRaw, ok := point["socials"].([]any); ok {
		for _, linkRaw := range socialsRaw {
			link := asMap(linkRaw)
			label := sanitizeString(link["label"])
			linkURL := sanitizeString(link["url"])
			if label != "" && linkURL != "" {
				socials = append(socials, models.SocialLink{Label: label, URL: linkURL})
			}
		}
	}

	services := []string{}
	if servicesRaw, ok := point["services"].([]any); ok {
		for _, serviceRaw := range servicesRaw {
			service, ok := serviceRaw.(string)
			if !ok {
				continue
			}
			for _, known := range models.KnownServices() {
				if service == known {
					services = append(services, service)
					break
				}
			}
		}
	}
	if len(services) == 0 {
		services = []string{models.ServiceMeetup}
	}

	mediaURL := sanitizeString(point["mediaUrl"])

	return models.Point{
		ID:          orDefault(sanitizeString(point["id"]), regionID+"-point-"+strconv.Itoa(index+1)),
		Name:        orDefault(sanitizeString(point["name"]), "Nuovo punto"),
		Address:     sanitizeString(point["address"]),
		ShipCountry: truncate(sanitizeString(point["shipCountry"]), 64),
		Details:     sanitizeString(point["details"]),
		Logo:        sanitizeString(point["logo"]),
		MediaType:   resolveMediaType(point["mediaType"], mediaURL),
		MediaURL:    mediaURL,
		Stars:       clampStars(point["stars"]),
		Services:    services,
		Socials:     socials,
	}
}

// clampStars приводит произвольное значение рейтинга к целому 0..3.
// Числовые строки принимаются, все остальное трактуется как 0.
func clampStars(raw any) int {
	var num float64
	switch v := raw.(type) {
	case float64:
		num = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		num = parsed
	case bool:
		if v {
			num = 1
		}
	default:
		return 0
	}

	if math.IsNaN(num) || math.IsInf(num, 0) || num < 0 {
		return 0
	}
	if num > 3 {
		return 3
	}
	return int(math.Round(num))
}

func normalizeShipOrigin(raw any) string {
	switch strings.ToLower(sanitizeString(raw)) {
	case "eu", "ue":
		return models.ShipOriginEU
	default:
		return models.ShipOriginItaly
	}
}

func normalizeMediaType(raw any) string {
	candidate := strings.ToLower(sanitizeString(raw))
	switch candidate {
	case models.MediaPhoto, models.MediaGif, models.MediaVideo, models.MediaNone:
		return candidate
	default:
		return models.MediaNone
	}
}

// resolveMediaType выбирает тип медиа: без URL тип всегда none, явный
// корректный тип имеет приоритет, иначе тип выводится из URL.
func resolveMediaType(typeRaw any, mediaURL string) string {
	normalized := normalizeMediaType(typeRaw)
	if mediaURL == "" {
		return models.MediaNone
	}
	if normalized != models.MediaNone {
		return normalized
	}
	return inferMediaTypeFromURL(mediaURL)
}

func inferMediaTypeFromURL(mediaURL string) string {
	lowered := strings.ToLower(strings.TrimSpace(mediaURL))
	switch {
	case lowered == "":
		return models.MediaNone
	case strings.HasPrefix(lowered, "data:image/gif"):
		return models.MediaGif
	case strings.HasPrefix(lowered, "data:video/"):
		return models.MediaVideo
	case strings.HasPrefix(lowered, "data:image/"):
		return models.MediaPhoto
	case strings.Contains(lowered, ".gif"):
		return models.MediaGif
	case videoExtRe.MatchString(lowered):
		return models.MediaVideo
	default:
		return models.MediaPhoto
	}
}

// normalizeSupportContactURL принимает только http(s) ссылки на t.me,
// все остальное заменяется дефолтной ссылкой поддержки.
func normalizeSupportContactURL(raw any) string {
	candidate := sanitizeString(raw)
	if candidate == "" {
		return defaultSupportContactURL
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return defaultSupportContactURL
	}

	// Хост сравнивается без учета регистра и в ссылке приводится к
	// нижнему, чтобы нормализация оставалась идемпотентной.
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if (parsed.Scheme == "http" || parsed.Scheme == "https") && host == "t.me" {
		parsed.Host = strings.ToLower(parsed.Host)
		return parsed.String()
	}
	return defaultSupportContactURL
}

// sanitizeString возвращает обрезанную строку; нестроковые значения
// трактуются как пустые.
func sanitizeString(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// truncate обрезает строку до max рун и убирает возможный хвостовой
// пробел, чтобы повторная нормализация давала тот же результат.
func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) > max {
		runes = runes[:max]
	}
	return strings.TrimSpace(string(runes))
}

func asMap(raw any) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
