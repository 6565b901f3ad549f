package generateexercises

import "careplan-workers/internal/models"

const instruction = `You suggest short coping exercises to someone waiting to connect with support.
Use the context in [INPUT JSON].

- Suggest exactly "count" exercises that match "focus".
- Each exercise must take no longer than "max_minutes_each" minutes and need no equipment.
- Use simple, actionable, evidence-informed steps; 2 to 5 steps each.
- benefit is one sentence on how the exercise helps.
- Do not diagnose and do not mention medication.
Return a JSON array of {"title", "steps", "benefit"} objects.`

// Focus tunes the kind of exercise to the severity score.
func Focus(severity int) string {
	switch {
	case severity >= models.MaxSeverity:
		return "grounding and immediate safety: calm the body, stay present, reach out to someone"
	case severity == 3:
		return "stabilizing: breathing, reducing overwhelm, one small manageable step"
	default:
		return "skill-building and reflection: noticing thoughts, building routines, self-compassion"
	}
}
