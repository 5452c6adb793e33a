package vision

import "fmt"

// The output schema described field-by-field to the inference service. Both
// analysis templates embed it so replies bind onto models.AnalysisResult.
const resultSchema = `{
    "battleType": "PVP/Rally/Alliance War/etc",
    "outcome": "Victory/Defeat/Draw",
    "player": {
        "name": "player name if visible",
        "power": "power level if visible",
        "alliance": "alliance name if visible"
    },
    "opponent": {
        "name": "opponent name if visible",
        "power": "power level if visible",
        "alliance": "alliance name if visible"
    },
    "troops": {
        "player": {
            "infantry": {"count": 0, "tier": "T1-T10"},
            "vehicles": {"count": 0, "tier": "T1-T10"},
            "aircraft": {"count": 0, "tier": "T1-T10"},
            "total": 0
        },
        "opponent": {
            "infantry": {"count": 0, "tier": "T1-T10"},
            "vehicles": {"count": 0, "tier": "T1-T10"},
            "aircraft": {"count": 0, "tier": "T1-T10"},
            "total": 0
        }
    },
    "damage": {
        "dealt": {
            "total": 0,
            "infantry": 0,
            "vehicles": 0,
            "aircraft": 0
        },
        "received": {
            "total": 0,
            "infantry": 0,
            "vehicles": 0,
            "aircraft": 0
        }
    },
    "casualties": {
        "player": {
            "killed": 0,
            "wounded": 0
        },
        "opponent": {
            "killed": 0,
            "wounded": 0
        }
    },
    "heroes": [
        {
            "name": "hero name",
            "level": 0,
            "stars": 0,
            "skills": ["skill1", "skill2"],
            "side": "player/opponent"
        }
    ],
    "resources": {
        "gained": {},
        "lost": {}
    }`

var singlePrompt = `You are an expert analyzer for the mobile game "Last War: Survival". Analyze this PVP battle screenshot and extract all relevant battle information.

Please provide a detailed analysis in the following JSON format:

` + resultSchema + `,
    "notes": "Any additional observations about the battle"
}

Important instructions:
1. Extract ALL visible numbers and statistics from the screenshot
2. If a value is not visible or unclear, use null instead of guessing
3. Pay attention to troop tiers (T1-T10) as they significantly impact battle analysis
4. Note any special battle conditions or buffs visible
5. Include hero information if commanders/heroes are shown
6. The game uses terms like "Infantry", "Vehicles/Tanks", "Aircraft/Helicopters"

Respond ONLY with the JSON object, no additional text.`

func combinedPrompt(imageCount int) string {
	return fmt.Sprintf(`You are an expert analyzer for the mobile game "Last War: Survival".

I am providing you with %d screenshot(s) from the SAME battle. These screenshots may show different tabs or views of the same battle report (e.g., overview tab, troop details tab, damage breakdown tab, hero stats tab).

Analyze ALL screenshots together and combine the information into a single comprehensive battle analysis. Extract data from whichever screenshot shows it most clearly.

Please provide a detailed analysis in the following JSON format:

`+resultSchema+`,
    "screenshotsAnalyzed": %d,
    "notes": "Any additional observations about the battle, mention which screenshots provided which data"
}

Important instructions:
1. Combine information from ALL %d screenshots into ONE unified analysis
2. Extract ALL visible numbers and statistics from any screenshot that shows them
3. If the same data appears in multiple screenshots, use the most complete/clear value
4. If a value is not visible in ANY screenshot, use null instead of guessing
5. Pay attention to troop tiers (T1-T10) as they significantly impact battle analysis
6. Note any special battle conditions or buffs visible
7. Include hero information if commanders/heroes are shown in any screenshot
8. The game uses terms like "Infantry", "Vehicles/Tanks", "Aircraft/Helicopters"

Respond ONLY with the JSON object, no additional text.`, imageCount, imageCount, imageCount)
}
