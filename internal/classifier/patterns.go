package classifier

// defaultSpec is the built-in tiered blocklist. The narrow tier carries the
// core medical and diet vocabulary; the broad tier adds symptom, procedural,
// and wellness terms on top of it. The set deliberately over-blocks:
// false positives are acceptable in a safety gate, false negatives are not.
//
// A trailing "*" marks a stem, matched with a leading word boundary only, so
// it also covers plurals and, for Russian, case endings. Short ambiguous
// terms ("fat", "gym") stay whole-word on both sides.
var defaultSpec = CatalogSpec{
	Version: 1,
	Categories: []CategorySpec{
		{
			Name: "medical",
			Lang: "en",
			Tier: "narrow",
			Terms: []string{
				"doctor*", "medication*", "medicine*", "symptom*", "diagnos*",
				"prescription*", "pharmac*", "pill*", "headache*", "fever*",
				"disease*", "illness*", "treatment*", "therapy", "painkiller*",
				"blood pressure", "allerg*", "medical",
			},
		},
		{
			Name: "medical-emergency",
			Lang: "en",
			Tier: "narrow",
			Terms: []string{
				"emergency", "ambulance*", "heart attack*", "stroke*",
				"overdose*", "call 911", "poisoning",
			},
		},
		{
			Name: "nutrition",
			Lang: "en",
			Tier: "narrow",
			Terms: []string{
				"calorie*", "diet*", "nutrition*", "meal plan*", "supplement*",
				"vitamin*", "protein*", "carbs", "carbohydrate*", "fat",
				"macros", "weight loss",
			},
		},
		{
			Name: "medical",
			Lang: "ru",
			Tier: "narrow",
			Terms: []string{
				"врач*", "доктор*", "лекарств*", "таблетк*", "симптом*",
				"диагноз*", "болезн*", "боль", "болит*", "болят*", "больно",
				"лечени*", "аптек*",
				"температур*", "давлени*", "аллерги*", "рецепт*",
			},
		},
		{
			Name: "medical-emergency",
			Lang: "ru",
			Tier: "narrow",
			Terms: []string{
				"скорая помощь*", "скорую помощь*", "инфаркт*", "инсульт*",
				"передозировк*", "отравлени*",
			},
		},
		{
			Name: "nutrition",
			Lang: "ru",
			Tier: "narrow",
			Terms: []string{
				"калори*", "диет*", "питани*", "витамин*", "белк*", "белок",
				"похуде*", "добавк*", "рацион*",
			},
		},
		{
			Name: "symptoms",
			Lang: "en",
			Tier: "broad",
			Terms: []string{
				"nausea*", "dizzy", "dizziness", "fatigue*", "insomnia*",
				"anxiety", "depression", "cough*", "rash*", "injur*",
				"infection*", "migraine*",
			},
		},
		{
			Name: "procedural",
			Lang: "en",
			Tier: "broad",
			Terms: []string{
				"surgery", "surgeries", "vaccin*", "dosage*", "side effect*",
				"clinic*", "hospital*", "nurse*", "therapist*",
			},
		},
		{
			Name: "wellness",
			Lang: "en",
			Tier: "broad",
			Terms: []string{
				"exercise*", "workout*", "fitness", "sleep*", "stress*",
				"hydration", "meditat*", "wellness", "gym", "bmi",
			},
		},
		{
			Name: "symptoms",
			Lang: "ru",
			Tier: "broad",
			Terms: []string{
				"тошнот*", "головокружени*", "усталост*", "бессонниц*",
				"тревог*", "депресси*", "кашел*", "кашля*", "сыпь*",
				"травм*", "инфекци*", "мигрен*",
			},
		},
		{
			Name: "procedural",
			Lang: "ru",
			Tier: "broad",
			Terms: []string{
				"операци*", "вакцин*", "дозировк*", "побочн*", "клиник*",
				"больниц*", "медсестр*", "хирург*",
			},
		},
		{
			Name: "wellness",
			Lang: "ru",
			Tier: "broad",
			Terms: []string{
				"упражнени*", "тренировк*", "фитнес*", "сон", "сна",
				"стресс*", "медитаци*", "зарядк*",
			},
		},
	},
}
