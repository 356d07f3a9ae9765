package models

// VoiceTone is a writing tone accepted by the content-generating tasks.
type VoiceTone string

const (
	VoiceToneAdventurous   VoiceTone = "Adventurous"
	VoiceToneAcademic      VoiceTone = "Academic"
	VoiceToneArticulate    VoiceTone = "Articulate"
	VoiceToneAssertive     VoiceTone = "Assertive"
	VoiceToneAuthoritative VoiceTone = "Authoritative"
	VoiceToneCaptivating   VoiceTone = "Captivating"
	VoiceToneCasual        VoiceTone = "Casual"
	VoiceToneCandid        VoiceTone = "Candid"
	VoiceToneCompelling    VoiceTone = "Compelling"
	VoiceToneComical       VoiceTone = "Comical"
	VoiceToneCultured      VoiceTone = "Cultured"
	VoiceToneEclectic      VoiceTone = "Eclectic"
	VoiceToneEducational   VoiceTone = "Educational"
	VoiceToneEffortless    VoiceTone = "Effortless"
	VoiceToneEloquent      VoiceTone = "Eloquent"
	VoiceToneEmpathetic    VoiceTone = "Empathetic"
	VoiceToneEmpowering    VoiceTone = "Empowering"
	VoiceToneEncouraging   VoiceTone = "Encouraging"
	VoiceToneEngaging      VoiceTone = "Engaging"
	VoiceToneEnlightening  VoiceTone = "Enlightening"
	VoiceToneEnthusiastic  VoiceTone = "Enthusiastic"
	VoiceToneExpressive    VoiceTone = "Expressive"
	VoiceToneFormal        VoiceTone = "Formal"
	VoiceToneFriendly      VoiceTone = "Friendly"
	VoiceToneFunny         VoiceTone = "Funny"
	VoiceToneHeartening    VoiceTone = "Heartening"
	VoiceToneHeartfelt     VoiceTone = "Heartfelt"
	VoiceToneHumorous      VoiceTone = "Humorous"
	VoiceToneImpassioned   VoiceTone = "Impassioned"
	VoiceToneInspirational VoiceTone = "Inspirational"
	VoiceToneInstructional VoiceTone = "Instructional"
	VoiceToneIntellectual  VoiceTone = "Intellectual"
	VoiceToneInformal      VoiceTone = "Informal"
	VoiceToneInventive     VoiceTone = "Inventive"
	VoiceToneLively        VoiceTone = "Lively"
	VoiceToneLyrical       VoiceTone = "Lyrical"
	VoiceToneLuxurious     VoiceTone = "Luxurious"
	VoiceToneMinimalist    VoiceTone = "Minimalist"
	VoiceToneNarrative     VoiceTone = "Narrative"
	VoiceToneNeutral       VoiceTone = "Neutral"
	VoiceToneNostalgic     VoiceTone = "Nostalgic"
	VoiceToneOptimistic    VoiceTone = "Optimistic"
	VoiceTonePersuasive    VoiceTone = "Persuasive"
	VoiceTonePessimistic   VoiceTone = "Pessimistic"
	VoiceToneProvocative   VoiceTone = "Provocative"
	VoiceToneQuirky        VoiceTone = "Quirky"
	VoiceToneRespectful    VoiceTone = "Respectful"
	VoiceToneSerious       VoiceTone = "Serious"
	VoiceToneSincere       VoiceTone = "Sincere"
	VoiceToneStorytelling  VoiceTone = "Storytelling"
	VoiceToneSympathetic   VoiceTone = "Sympathetic"
	VoiceToneThoughtful    VoiceTone = "Thoughtful"
	VoiceToneTouching      VoiceTone = "Touching"
	VoiceToneWitty         VoiceTone = "Witty"
)

var voiceTones = map[VoiceTone]bool{
	VoiceToneAdventurous:   true,
	VoiceToneAcademic:      true,
	VoiceToneArticulate:    true,
	VoiceToneAssertive:     true,
	VoiceToneAuthoritative: true,
	VoiceToneCaptivating:   true,
	VoiceToneCasual:        true,
	VoiceToneCandid:        true,
	VoiceToneCompelling:    true,
	VoiceToneComical:       true,
	VoiceToneCultured:      true,
	VoiceToneEclectic:      true,
	VoiceToneEducational:   true,
	VoiceToneEffortless:    true,
	VoiceToneEloquent:      true,
	VoiceToneEmpathetic:    true,
	VoiceToneEmpowering:    true,
	VoiceToneEncouraging:   true,
	VoiceToneEngaging:      true,
	VoiceToneEnlightening:  true,
	VoiceToneEnthusiastic:  true,
	VoiceToneExpressive:    true,
	VoiceToneFormal:        true,
	VoiceToneFriendly:      true,
	VoiceToneFunny:         true,
	VoiceToneHeartening:    true,
	VoiceToneHeartfelt:     true,
	VoiceToneHumorous:      true,
	VoiceToneImpassioned:   true,
	VoiceToneInspirational: true,
	VoiceToneInstructional: true,
	VoiceToneIntellectual:  true,
	VoiceToneInformal:      true,
	VoiceToneInventive:     true,
	VoiceToneLively:        true,
	VoiceToneLyrical:       true,
	VoiceToneLuxurious:     true,
	VoiceToneMinimalist:    true,
	VoiceToneNarrative:     true,
	VoiceToneNeutral:       true,
	VoiceToneNostalgic:     true,
	VoiceToneOptimistic:    true,
	VoiceTonePersuasive:    true,
	VoiceTonePessimistic:   true,
	VoiceToneProvocative:   true,
	VoiceToneQuirky:        true,
	VoiceToneRespectful:    true,
	VoiceToneSerious:       true,
	VoiceToneSincere:       true,
	VoiceToneStorytelling:  true,
	VoiceToneSympathetic:   true,
	VoiceToneThoughtful:    true,
	VoiceToneTouching:      true,
	VoiceToneWitty:         true,
}

// Valid reports whether t is one of the known tones.
func (t VoiceTone) Valid() bool {
	return voiceTones[t]
}
