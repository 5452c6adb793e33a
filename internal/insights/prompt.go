package insights

import (
	"encoding/json"
	"fmt"

	"github.com/battlelens/battlelens/internal/models"
)

const promptTemplate = `You are an expert game analyst for "Last War: Survival". Analyze this player's battle history using your knowledge of the game's combat mechanics.

=== LAST WAR GAME MECHANICS KNOWLEDGE ===

**TROOP TYPE COUNTER SYSTEM (Rock-Paper-Scissors):**
- Tanks > Aircraft (20%% damage bonus + 20%% damage reduction = 40%% effective swing)
- Aircraft > Missile Vehicles (20%% damage bonus + 20%% damage reduction)
- Missile Vehicles > Tanks (20%% damage bonus + 20%% damage reduction)
- Type advantage provides ~44%% effective power swing (1.44x vs 0.64x = 2.25x difference)

**2025 META:**
- Tank-heavy formations dominate (3-4 Tanks standard, 60-80%% tank ratio optimal)
- 3-4 tank compositions represent 85%%+ of successful competitive teams
- Control heroes are now mandatory (1-2 dedicated control specialists required)
- Solo excellence insufficient - alliance coordination critical

**FORMATION BONUSES (after Capitol conquest):**
- 3 same-type heroes: +5%% HP/ATK/DEF
- 3 same + 2 different: +10%% HP/ATK/DEF
- 4 same-type heroes: +15%% HP/ATK/DEF
- 5 same-type heroes: +20%% HP/ATK/DEF

**MORALE MECHANICS:**
- Morale Bonus = 1 + (Your Morale - Enemy Morale) / 100
- +100%% morale advantage = DOUBLE damage
- Can range from draw to 300%% attack power at extremes
- Most underutilized mechanic - can overcome significant power disadvantages

**DAMAGE FORMULA:**
Final Damage = Base Attack x Type Modifier x Morale Modifier x Formation Bonus x Skill Multipliers x Equipment x Critical Hit x (1 - Enemy Defense)

**TOP TIER HEROES (2025):**
S-Tier: Kimberly (AoE tank), DVA (single-target burst), Tesla (endgame scaling), Murphy (best tank)
A-Tier: Williams (defensive backbone), Marshall (consistent), Fiona (short-mid encounters)
Best F2P core: Kimberly, Murphy, Mason

**RALLY STRATEGY:**
- 25%%+ power advantage recommended for reliable wins
- War Fever provides 1%% damage boost (must trigger manually)
- Rally prep times: 5min (active), 10min (standard), 30min (cross-timezone), 60min (max participation)
- R4/R5 rally participation gives +5%% damage boost

**KEY INSIGHTS:**
- A 3.5M power player with optimal bonuses can fight like 12.6M power (360%% increase)
- Smart fighters beat strong fighters through mechanics mastery
- Buildings get +25%% damage vs Aircraft (aircraft vulnerable in base defense)

=== PLAYER BATTLE HISTORY ===
%s

=== ANALYSIS REQUIRED ===
Based on the battle data AND the game mechanics above, provide strategic insights:

{
    "overallPerformance": {
        "rating": "Excellent/Good/Average/Needs Improvement",
        "winRate": 0,
        "averageDamageEfficiency": 0,
        "trend": "Improving/Stable/Declining"
    },
    "strengths": [
        "Specific strength observed (reference game mechanics)"
    ],
    "weaknesses": [
        "Specific weakness based on game mechanics understanding"
    ],
    "patterns": {
        "bestPerformingTroopType": "Tank/Missile/Aircraft",
        "worstPerformingTroopType": "Tank/Missile/Aircraft",
        "typeCounterUsage": "Analysis of whether player uses counters effectively",
        "formationAnalysis": "Whether player achieves type bonuses",
        "riskyOpponents": ["Characteristics of opponents that cause losses"]
    },
    "recommendations": [
        {
            "priority": "High/Medium/Low",
            "category": "Troops/Heroes/Counters/Morale/Formation/Rally",
            "suggestion": "Specific actionable recommendation based on game mechanics",
            "reasoning": "Why this matters mechanically"
        }
    ],
    "counterStrategy": {
        "againstTanks": "Recommendation for fighting tank-heavy enemies",
        "againstAircraft": "Recommendation for fighting aircraft-heavy enemies",
        "againstMissiles": "Recommendation for fighting missile-heavy enemies"
    },
    "nextBattleTips": [
        "Immediate tips referencing specific game mechanics"
    ],
    "heroAnalysis": {
        "detectedHeroes": ["List of heroes seen in battles"],
        "heroTierAssessment": "Assessment based on S/A/B/C tier list",
        "heroRecommendations": "Suggestions based on current meta"
    },
    "moraleAndBuffs": {
        "moraleUsage": "Assessment of morale advantage usage",
        "formationBonusUsage": "Assessment of type bonus usage",
        "improvementTips": "How to leverage these mechanics better"
    },
    "summary": "2-3 sentence summary with specific game mechanics references"
}

Respond ONLY with the JSON object.`

func buildPrompt(summaries []models.BattleSummary) (string, error) {
	payload, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling battle summaries: %w", err)
	}
	return fmt.Sprintf(promptTemplate, payload), nil
}
