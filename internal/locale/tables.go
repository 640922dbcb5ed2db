package locale

var tables = map[string]map[Key]string{
	"en": {
		AppName:       "Pandafix",
		AppSub:        "Fan Tester",
		InitHW:        "HW Init...",
		ErrorInit:     "Init Error!",
		MenuTitle:     "SELECT MODE",
		ModeAuto:      "AUTO TEST",
		ModeManual:    "MANUAL TEST",
		ModeTarget:    "TARGET RPM",
		ModeSettings:  "SETTINGS",
		ModeAbout:     "ABOUT",
		SettingsTitle: "SETTINGS",
		SetLanguage:   "LANGUAGE",
		SetStep:       "PWM STEP",
		SetDebounce:   "DEBOUNCE",
		Back:          "BACK",
		PWM:           "PWM",
		RPM:           "RPM",
		Target:        "TGT",
		Temp:          "Temp",
		StallAlert:    "ERROR! (STALL)",
		BtnNav:        "A:Select B:Menu",
		BtnBack:       "B: Back",
		Saved:         "Saved!",
		LangName:      "English",
	},
	"hu": {
		AppSub:        "Fan Tester",
		InitHW:        "Hardver init...",
		ErrorInit:     "Init hiba!",
		MenuTitle:     "MOD VALASZTAS",
		ModeAuto:      "AUTO TESZT",
		ModeManual:    "KEZI TESZT",
		ModeTarget:    "CEL RPM",
		ModeSettings:  "BEALLITASOK",
		ModeAbout:     "NEVJEGY",
		SettingsTitle: "BEALLITASOK",
		SetLanguage:   "NYELV / LANG",
		SetStep:       "PWM LEPES",
		SetDebounce:   "PERGESMENTES",
		Back:          "VISSZA",
		Target:        "CEL",
		Temp:          "Hom.",
		StallAlert:    "HIBA! (STALL)",
		BtnNav:        "A:Valaszt B:Menu",
		BtnBack:       "B: Vissza",
		Saved:         "Mentve!",
		LangName:      "Magyar",
	},
	"de": {
		AppSub:        "Luefter Test",
		ErrorInit:     "Init Fehler!",
		MenuTitle:     "MODUS WAEHLEN",
		ModeManual:    "MANUELL",
		ModeTarget:    "ZIEL RPM",
		ModeSettings:  "EINSTELLUNGEN",
		ModeAbout:     "INFO",
		SettingsTitle: "EINSTELLUNGEN",
		SetLanguage:   "SPRACHE",
		SetStep:       "PWM SCHRITT",
		SetDebounce:   "ENTPRELLUNG",
		Back:          "ZURUECK",
		Target:        "ZIEL",
		StallAlert:    "FEHLER! (STALL)",
		BtnNav:        "A:Wahl B:Menu",
		BtnBack:       "B: Zurueck",
		Saved:         "Gesp.!",
		LangName:      "Deutsch",
	},
	"es": {
		InitHW:        "Inic. HW...",
		ErrorInit:     "Error Init!",
		MenuTitle:     "SELECC. MODO",
		ModeManual:    "MANUAL",
		ModeTarget:    "RPM OBJ.",
		ModeSettings:  "AJUSTES",
		ModeAbout:     "ACERCA DE",
		SettingsTitle: "AJUSTES",
		SetLanguage:   "IDIOMA",
		SetStep:       "PASO PWM",
		SetDebounce:   "ANTIRREBOTE",
		Back:          "ATRAS",
		Target:        "OBJ",
		BtnNav:        "A:Sel B:Menu",
		BtnBack:       "B: Atras",
		Saved:         "Guard.!",
		LangName:      "Espanol",
	},
	"fr": {
		AppSub:        "Testeur Vent.",
		InitHW:        "Init Mat...",
		ErrorInit:     "Erreur Init!",
		MenuTitle:     "MODE",
		ModeAuto:      "TEST AUTO",
		ModeManual:    "MANUEL",
		ModeTarget:    "CIBLE RPM",
		ModeSettings:  "REGLAGES",
		ModeAbout:     "A PROPOS",
		SettingsTitle: "REGLAGES",
		SetLanguage:   "LANGUE",
		SetStep:       "PAS PWM",
		SetDebounce:   "ANTI-REBOND",
		Back:          "RETOUR",
		Target:        "CIBL",
		StallAlert:    "ERREUR (STALL)",
		BtnNav:        "A:Sel B:Menu",
		BtnBack:       "B: Retour",
		Saved:         "Enreg.!",
		LangName:      "Francais",
	},
	"it": {
		InitHW:        "Init HW...",
		ErrorInit:     "Errore Init!",
		MenuTitle:     "MODALITA",
		ModeAuto:      "TEST AUTO",
		ModeManual:    "MANUALE",
		ModeSettings:  "IMPOSTAZIONI",
		ModeAbout:     "INFO",
		SettingsTitle: "IMPOSTAZIONI",
		SetLanguage:   "LINGUA",
		SetStep:       "PASSO PWM",
		SetDebounce:   "ANTIRIMBALZO",
		Back:          "INDIETRO",
		Target:        "OBIET",
		StallAlert:    "ERRORE (STALL)",
		BtnNav:        "A:Sel B:Menu",
		BtnBack:       "B: Indietro",
		Saved:         "Salv.!",
		LangName:      "Italiano",
	},
}
