// Package datastore владеет единым JSON-документом сайта: держит текущую
// нормализованную копию в памяти и атомарно сохраняет ее на диск.
package datastore

import "github.com/iudanet/ristopoint/internal/models"

// defaultSupportContactURL используется, когда входная ссылка поддержки
// отсутствует или не является ссылкой на t.me.
const defaultSupportContactURL = "https://t.me/SHLC26"

// DefaultDocument возвращает стартовое наполнение каталога.
// Результат уже нормализован по построению.
func DefaultDocument() models.Document {
	return models.Document{
		ServiceLabels: models.ServiceLabels{
			Meetup:   "Ritiro",
			Delivery: "Consegna",
			Ship:     "Spedizione",
		},
		SupportContactURL: defaultSupportContactURL,
		Regions: []models.Region{
			{
				ID:         "lombardia",
				Name:       "Lombardia",
				Hubs:       "Milano, Bergamo, Brescia",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "mi-duomo",
						Name:      "Milano Duomo Hub",
						Address:   "Via Torino 18, Milano",
						MediaType: models.MediaNone,
						Stars:     3,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery, models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_milano"},
							{Label: "Telegram", URL: "https://t.me/ristoranti_italia_milano"},
							{Label: "Sito", URL: "https://example.com/milano-duomo"},
						},
					},
					{
						ID:        "bg-stazione",
						Name:      "Bergamo Stazione Point",
						Address:   "Piazzale Marconi 6, Bergamo",
						MediaType: models.MediaNone,
						Stars:     2,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_bergamo"},
							{Label: "Facebook", URL: "https://facebook.com/ristoranti.italia.bergamo"},
						},
					},
				},
			},
			{
				ID:         "lazio",
				Name:       "Lazio",
				Hubs:       "Roma, Latina",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "roma-centro",
						Name:      "Roma Centro Lounge",
						Address:   "Via Cavour 51, Roma",
						MediaType: models.MediaNone,
						Stars:     3,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery, models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_roma"},
							{Label: "TikTok", URL: "https://www.tiktok.com/@ristoranti.italia.roma"},
							{Label: "Sito", URL: "https://example.com/roma-centro"},
						},
					},
					{
						ID:        "latina-nord",
						Name:      "Latina Nord Point",
						Address:   "Viale XXI Aprile 14, Latina",
						MediaType: models.MediaNone,
						Stars:     1,
						Services:  []string{models.ServiceDelivery},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_latina"},
							{Label: "Telegram", URL: "https://t.me/ristoranti_italia_latina"},
						},
					},
				},
			},
			{
				ID:         "veneto",
				Name:       "Veneto",
				Hubs:       "Venezia, Verona",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "venezia-mestre",
						Name:      "Venezia Mestre Dock",
						Address:   "Corso del Popolo 22, Mestre",
						MediaType: models.MediaNone,
						Stars:     2,
						Services:  []string{models.ServiceMeetup, models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_venezia"},
							{Label: "Sito", URL: "https://example.com/venezia-mestre"},
						},
					},
					{
						ID:        "verona-arena",
						Name:      "Verona Arena Point",
						Address:   "Via Leoncino 29, Verona",
						MediaType: models.MediaNone,
						Stars:     1,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery},
						Socials: []models.SocialLink{
							{Label: "Facebook", URL: "https://facebook.com/ristoranti.italia.verona"},
							{Label: "Telegram", URL: "https://t.me/ristoranti_italia_verona"},
						},
					},
				},
			},
			{
				ID:         "emilia-romagna",
				Name:       "Emilia-Romagna",
				Hubs:       "Bologna, Parma",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "bologna-porta",
						Name:      "Bologna Porta Hub",
						Address:   "Via dell'Indipendenza 73, Bologna",
						MediaType: models.MediaNone,
						Stars:     3,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery, models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_bologna"},
							{Label: "TikTok", URL: "https://www.tiktok.com/@ristoranti.italia.bologna"},
						},
					},
					{
						ID:        "parma-centro",
						Name:      "Parma Centro Point",
						Address:   "Strada Garibaldi 10, Parma",
						MediaType: models.MediaNone,
						Stars:     1,
						Services:  []string{models.ServiceDelivery},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_parma"},
							{Label: "Sito", URL: "https://example.com/parma-centro"},
						},
					},
				},
			},
			{
				ID:         "piemonte",
				Name:       "Piemonte",
				Hubs:       "Torino, Novara",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "torino-sanpaolo",
						Name:      "Torino San Paolo Hub",
						Address:   "Corso Francia 44, Torino",
						MediaType: models.MediaNone,
						Stars:     2,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery, models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_torino"},
							{Label: "Telegram", URL: "https://t.me/ristoranti_italia_torino"},
							{Label: "Sito", URL: "https://example.com/torino-sanpaolo"},
						},
					},
				},
			},
			{
				ID:         "toscana",
				Name:       "Toscana",
				Hubs:       "Firenze, Pisa",
				ShipOrigin: models.ShipOriginItaly,
				ActivePoints: []models.Point{
					{
						ID:        "firenze-santa-maria",
						Name:      "Firenze Santa Maria Point",
						Address:   "Via dei Cerretani 38, Firenze",
						MediaType: models.MediaNone,
						Stars:     2,
						Services:  []string{models.ServiceMeetup, models.ServiceDelivery},
						Socials: []models.SocialLink{
							{Label: "Instagram", URL: "https://instagram.com/ristoranti_italia_firenze"},
							{Label: "Facebook", URL: "https://facebook.com/ristoranti.italia.firenze"},
						},
					},
					{
						ID:        "pisa-porto",
						Name:      "Pisa Porto Logistic",
						Address:   "Via Aurelia 12, Pisa",
						MediaType: models.MediaNone,
						Stars:     1,
						Services:  []string{models.ServiceShip},
						Socials: []models.SocialLink{
							{Label: "Telegram", URL: "https://t.me/ristoranti_italia_pisa"},
							{Label: "Sito", URL: "https://example.com/pisa-porto"},
						},
					},
				},
			},
		},
	}
}
