package behavior

// Semantic array names shared between the MedPC and CSV loaders. Every
// consumer downstream of session assembly addresses arrays by these names,
// never by the single-letter labels of any one behavioral program.
const (
	FieldPortEntryTimes     = "port_entry_times"
	FieldPortEntryDuration  = "duration_of_port_entry"
	FieldLeftNosePokeTimes  = "left_nose_poke_times"
	FieldRightNosePokeTimes = "right_nose_poke_times"
	FieldLeftRewardTimes    = "left_reward_times"
	FieldRightRewardTimes   = "right_reward_times"
	FieldFootshockTimes     = "footshock_times"
	FieldOptoStimTimes      = "optogenetic_stimulation_times"
)

// UnknownValue marks CSV sessions whose spreadsheet omits a metadata column
// and whose filename cannot supply it.
const UnknownValue = "Unknown"
