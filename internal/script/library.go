package script

// Default returns the built-in script library.
func Default() *Library {
	return NewLibrary(midnightManor, gildedGallery)
}

var midnightManor = &Script{
	ID:          "midnight-manor",
	Title:       "Midnight at Harrow Manor",
	Cover:       "🏚️",
	Description: "The master of Harrow Manor is found dead in his study the night his will was to be read. Everyone had a reason.",
	Background: "A storm has cut Harrow Manor off from town. Lord Edmund Harrow was found " +
		"slumped over his desk at midnight, a glass of brandy untouched beside him. The will " +
		"he planned to read at breakfast is missing from the safe. Four people were in the " +
		"house. None of them can leave until dawn.",
	PlayerCount: PlayerCount{Min: 1, Max: 4},
	Characters: []Character{
		{
			ID:          "vivian",
			Name:        "Vivian Harrow",
			Avatar:      "💍",
			Description: "Lord Harrow's young second wife. Charming in company, guarded in private. Married into the family three years ago and never quite accepted by it.",
			SecretInfo:  "You discovered last week that Edmund intended to cut you out of the new will. You argued with him at ten o'clock, then went straight to your room and stayed there. You heard footsteps pass your door twice before midnight.",
		},
		{
			ID:          "bennett",
			Name:        "Bennett the Butler",
			Avatar:      "🕯️",
			Description: "Head of the household for thirty years. Precise, loyal, and the only person with keys to every room, including the study.",
			SecretInfo:  "You opened the safe at Edmund's own request at nine o'clock and watched him put the will inside. You also know the brandy decanter was replaced yesterday, though you did not order it. You said nothing because stores are Miss Price's domain.",
		},
		{
			ID:           "julian",
			Name:         "Julian Harrow",
			Avatar:       "🃏",
			Description:  "Edmund's estranged nephew, arrived unannounced two days ago. Gambling debts follow him like weather.",
			SecretInfo:   "You poisoned the brandy decanter you swapped in yesterday, expecting your uncle's usual nightcap to settle your debts by inheritance. The missing will is in your coat lining — you took it from the safe after he was dead. Deflect onto Vivian's argument if pressed.",
			IsAntagonist: true,
		},
		{
			ID:          "price",
			Name:        "Miss Price",
			Avatar:      "📖",
			Description: "The estate's bookkeeper. Quiet, observant, owed three months of wages and too polite to mention it.",
			SecretInfo:  "Going over the accounts, you found the order slip for a brandy decanter you never placed, signed with a clumsy copy of your initials. You kept the slip. You were in the library across from the study until half past eleven and saw Julian on the stair.",
		},
	},
	Scenes: []Scene{
		{
			Title:       "The Discovery",
			Description: "The household gathers in the drawing room after the body is found.",
			Prompt:      "Lord Harrow's body has just been discovered in the locked study. Each of you must account for where you were tonight between nine o'clock and midnight. Introduce yourself and give your account.",
		},
		{
			Title:       "The Missing Will",
			Description: "Bennett reveals that the safe is open and the will is gone.",
			Prompt:      "It has just come to light that the new will is missing from the study safe, which shows no sign of being forced. Discuss who could have opened it, and press the others on gaps in their accounts.",
		},
		{
			Title:       "The Last Glass",
			Description: "The doctor's note arrives: the brandy was poisoned.",
			Prompt:      "Word arrives that the untouched brandy was laced with poison — the killer planned this days in advance. Make your final case: defend yourself, and say plainly who you believe did it and why.",
		},
	},
}

var gildedGallery = &Script{
	ID:          "gilded-gallery",
	Title:       "The Gilded Gallery",
	Cover:       "🖼️",
	Description: "An auction-night blackout, a slashed masterpiece, and a curator who never made it to the podium.",
	Background: "At the Delacroix Gallery's invitation-only auction, the lights failed for " +
		"four minutes. When they returned, curator Armand Delacroix lay at the foot of the " +
		"grand staircase and the evening's centerpiece had been cut from its frame. The " +
		"doors were sealed before anyone could leave.",
	PlayerCount: PlayerCount{Min: 1, Max: 2},
	Characters: []Character{
		{
			ID:          "lena",
			Name:        "Lena Moreau",
			Avatar:      "🎨",
			Description: "A restorer who has worked on the gallery's collection for a decade and knew the centerpiece brushstroke by brushstroke.",
			SecretInfo:  "During restoration you discovered the centerpiece is a forgery — and told only Armand, yesterday. He begged you to stay silent until after the auction. You were in the restoration workshop when the lights failed.",
		},
		{
			ID:           "victor",
			Name:         "Victor Kane",
			Avatar:       "🥂",
			Description:  "A collector with deep pockets and deeper grudges, outbid by Armand's clients three auctions running.",
			SecretInfo:   "You cut the power, took the painting, and pushed Armand when he caught you on the stairs in the dark. The canvas is rolled inside the standing lamp by the cloakroom. Cast suspicion on Lena — a restorer can fake anything.",
			IsAntagonist: true,
		},
	},
	Scenes: []Scene{
		{
			Title:       "Lights Up",
			Description: "The guests are gathered in the sealed main hall.",
			Prompt:      "The doors are sealed and the police are an hour away. Say where you were during the four minutes of darkness and what you heard.",
		},
		{
			Title:       "The Empty Frame",
			Description: "The slashed frame is examined under the gallery lights.",
			Prompt:      "The frame was cut by someone who knew exactly where the canvas was weakest. Question each other's knowledge of the painting and movements in the dark, then state who you suspect.",
		},
	},
}
