package lexical

// afinn holds AFINN-style valences in the range -5..+5. The list is trimmed to
// vocabulary that shows up in support transcripts.
var afinn = map[string]int{
	// positive
	"amazing": 4, "awesome": 4, "brilliant": 4, "excellent": 3, "fantastic": 4,
	"outstanding": 5, "superb": 5, "wonderful": 4, "perfect": 3, "great": 3,
	"good": 3, "nice": 3, "fine": 2, "cool": 1, "ok": 1, "okay": 1,
	"happy": 3, "glad": 3, "pleased": 3, "delighted": 3, "satisfied": 2,
	"love": 3, "loved": 3, "like": 2, "enjoy": 2, "enjoyed": 2,
	"thank": 2, "thanks": 2, "thankful": 2, "grateful": 3, "appreciate": 2,
	"appreciated": 2, "helpful": 2, "help": 2, "helped": 2, "support": 2,
	"resolved": 2, "fixed": 2, "solved": 1, "solution": 1, "works": 1,
	"working": 1, "success": 2, "successful": 3, "easy": 1, "fast": 1,
	"quick": 1, "quickly": 1, "kind": 2, "friendly": 2, "polite": 2,
	"recommend": 2, "best": 3, "better": 2, "improve": 2, "improved": 2,
	"welcome": 2, "yes": 1, "sure": 1, "absolutely": 1, "definitely": 1,
	"excited": 3, "exciting": 3, "impressed": 3, "impressive": 3, "fair": 2,
	"reliable": 2, "smooth": 1, "clear": 1, "calm": 2, "relieved": 2,
	"reward": 2, "benefit": 2, "bonus": 2, "free": 1, "gift": 2,
	"fun": 4, "joy": 3, "win": 4, "wins": 4, "won": 3, "agree": 1,
	"agreed": 1, "accept": 1, "accepted": 1, "promise": 1, "secure": 2,
	"safe": 1, "trust": 1, "valuable": 2, "worth": 2, "wow": 4,

	// negative
	"bad": -3, "worse": -3, "worst": -3, "terrible": -3, "horrible": -3,
	"awful": -3, "poor": -2, "pathetic": -2, "useless": -2, "ridiculous": -3,
	"unacceptable": -2, "disappointed": -2, "disappointing": -2, "disappointment": -2,
	"frustrated": -2, "frustrating": -2, "frustration": -2, "angry": -3, "anger": -3,
	"annoyed": -2, "annoying": -2, "upset": -2, "mad": -3, "furious": -3,
	"hate": -3, "hated": -3, "dislike": -2, "sad": -2, "unhappy": -2,
	"problem": -2, "problems": -2, "issue": -1, "issues": -1, "trouble": -2,
	"error": -2, "errors": -2, "fail": -2, "failed": -2, "failing": -2,
	"failure": -2, "broken": -1, "broke": -1, "bug": -2, "bugs": -2,
	"crash": -2, "crashed": -2, "slow": -2, "wrong": -2, "mistake": -2,
	"confused": -2, "confusing": -2, "difficult": -1, "hard": -1, "stuck": -2,
	"wait": -1, "waiting": -1, "waited": -1, "delay": -1, "delayed": -2,
	"late": -1, "lost": -3, "missing": -2, "never": -1, "no": -1,
	"cancel": -1, "cancelled": -1, "canceled": -1, "refund": -2, "complaint": -2,
	"complain": -2, "complained": -2, "unresolved": -2, "unfair": -2, "overcharged": -2,
	"charge": -1, "charged": -1, "expensive": -2, "worried": -3, "worry": -3,
	"afraid": -2, "scared": -2, "stupid": -2, "rude": -2, "ignored": -2,
	"ignore": -1, "sucks": -3, "damn": -4, "hell": -4, "shit": -4,
	"disaster": -2, "nightmare": -3, "joke": 2, "sorry": -1, "apologize": -1,
	"unfortunately": -2, "cannot": -1, "impossible": -2, "lose": -3, "losing": -3,
	"leave": -1, "leaving": -1, "quit": -1, "threat": -2, "threaten": -2,
	"fraud": -4, "scam": -2, "steal": -2, "stolen": -2, "dead": -3,
}

// negators flip the valence of the token that immediately follows them.
var negators = map[string]struct{}{
	"not": {}, "don't": {}, "dont": {}, "doesn't": {}, "doesnt": {},
	"didn't": {}, "didnt": {}, "isn't": {}, "isnt": {}, "wasn't": {},
	"wasnt": {}, "aren't": {}, "arent": {}, "won't": {}, "wont": {},
	"can't": {}, "cant": {}, "couldn't": {}, "couldnt": {}, "never": {},
}
