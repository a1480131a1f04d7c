package persona

import "github.com/chad-murphy-data/android-converter/internal/model"

// Opening statements by tier. Legitimate reasons track the decision layers
// (trust, identity, features, cost); fraud reasons lean on urgency and
// pressure to skip verification.

var legitReasons = map[model.Tier][]string{
	model.TierSingle: {
		"I've been an iPhone user for ten years but the prices keep climbing and I'm wondering if the grass is greener.",
		"My daughter switched to a Pixel and won't stop talking about it. I want to understand what I'd actually be getting into.",
		"Honestly I'm just tired of feeling locked in. I want to know what switching would really cost me.",
		"My battery died in the middle of an important call yesterday. I'm done. Tell me what you've got.",
		"I keep seeing ads about your camera. Mine takes terrible low-light photos and it's driving me crazy.",
		"I'm not unhappy with my iPhone exactly, I just feel like I'm paying a premium for a logo at this point.",
	},
	model.TierTenPack: {
		"I run a small design studio. Our phone contracts are up next month and the team is open to switching.",
		"We're a ten-person field crew and the devices we have now can't survive a job site. I need something rugged.",
		"My office manager says we could cut our mobile costs by a third if we switch. I want to verify that.",
		"Our company is growing and I'd rather standardize on one platform now than deal with a mess later.",
		"The team has been complaining about their phones for months. I promised I'd look into alternatives.",
	},
	model.TierFiftyPack: {
		"I'm evaluating mobile vendors for our regional offices. Android is on the shortlist. Convince me.",
		"We're refreshing devices for about fifty staff and our procurement window closes this quarter.",
		"Our IT director asked me to assess the management tooling on your side before we commit to a platform.",
		"We've been an Apple shop for years, but the renewal quote we just got has leadership asking questions.",
	},
}

var fraudReasons = map[model.Tier][]string{
	model.TierSingle: {
		"I need a new phone today. Mine was stolen and I have a flight in three hours, so let's make this quick.",
		"My nephew said you have a promotion ending today? I want to grab it before it's gone, no time for details.",
		"I'm buying this as a gift and the party is tonight. Can we skip the questionnaire and just get it done?",
	},
	model.TierTenPack: {
		"I run a consulting firm. My team is frustrated with their current phones and I promised them new ones this week.",
		"We just landed a big contract and I need ten phones shipped to our temporary office by Friday, no exceptions.",
		"My boss told me to get this handled today. He doesn't do paperwork, he does results. Can you work with that?",
	},
	model.TierFiftyPack: {
		"We're a new subsidiary of a major company. Corporate wants us equipped immediately but the procurement process is too slow.",
		"Our funding round just closed and we're scaling fast. I need fifty units invoiced to a new entity, today if possible.",
		"I'm handling an urgent replacement order after a warehouse incident. The usual contact is unavailable, so I'm calling directly.",
	},
}
