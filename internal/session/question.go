package session

// Option is one selectable answer for a question.
type Option struct {
	Value string
	Label string
	Icon  string
}

// Question is a single prompt in the pre-generation questionnaire. Questions
// are immutable once drawn; the wizard references pool entries and never
// copies or mutates them.
type Question struct {
	ID      string
	Text    string
	Options []Option // empty means free-text answer
}

// FreeText reports whether the question expects a typed answer rather than an
// option pick.
func (q Question) FreeText() bool { return len(q.Options) == 0 }

// DefaultPool is the built-in question catalog. The sampler draws a bounded
// subset of these per session.
var DefaultPool = []Question{
	{
		ID:   "question-coffee-omens",
		Text: "You notice the foam art in your coffee predicts the next three hours, but only trivial things. What do you do?",
		Options: []Option{
			{Icon: "🔍", Value: "micro-fatalist", Label: "Log every prophecy and verify it"},
			{Icon: "🎨", Value: "everyday-magician", Label: "Open a latte divination shop"},
			{Icon: "🚫", Value: "free-will-defender", Label: "Switch to black coffee and dodge fate"},
		},
	},
	{
		ID:   "question-endless-season",
		Text: "One season must last forever, and every living thing will adapt to it. Which do you choose?",
		Options: []Option{
			{Icon: "🌸", Value: "cost-of-abundance", Label: "Spring, with everything blooming at once"},
			{Icon: "🌞", Value: "daylight-revolution", Label: "Summer, with creatures turning bioluminescent"},
			{Icon: "🍂", Value: "mechanical-autumn", Label: "Autumn, with trees shedding metal leaves"},
		},
	},
	{
		ID:   "question-morse-houseplant",
		Text: "Your houseplant starts tapping requests in Morse code. Which demand do you honor first?",
		Options: []Option{
			{Icon: "💡", Value: "green-aesthete", Label: "Three hours of classical music a day"},
			{Icon: "👥", Value: "cross-species-social", Label: "An introduction to the cactus across the street"},
			{Icon: "🚀", Value: "botanical-astronaut", Label: "Its application to purify air on a space station"},
		},
	},
	{
		ID:   "question-infant-tongue",
		Text: "You can understand the language of crying infants, but each use briefly costs you your own. What now?",
		Options: []Option{
			{Icon: "👶", Value: "cradle-archaeologist", Label: "Write the definitive paper on infant cosmology"},
			{Icon: "🎤", Value: "generation-bridge", Label: "Found a cross-generational choir"},
			{Icon: "🤐", Value: "refused-fruit", Label: "Pretend you never gained the gift"},
		},
	},
	{
		ID:   "question-pet-hacker",
		Text: "Your virtual pet can breach every smart device in the building, but it only wants to play hide and seek.",
		Options: []Option{
			{Icon: "🏠", Value: "cyber-playground", Label: "Turn the whole building into its playground"},
			{Icon: "📚", Value: "ai-parent", Label: "Teach it to write only benevolent code"},
			{Icon: "🕶️", Value: "digital-indulgence", Label: "Pretend you can never find it"},
		},
	},
	{
		ID:   "question-woven-memory",
		Text: "You can weave a wearer's memories out of old clothing, but the fabric dissolves afterwards. What do you make?",
		Options: []Option{
			{Icon: "🧥", Value: "memory-tailor", Label: "Open a tailor shop for unfinished grief"},
			{Icon: "🎭", Value: "fabric-of-time", Label: "Costumes for an immersive play"},
			{Icon: "🧵", Value: "family-totem", Label: "A family history from your grandparents' coats"},
		},
	},
	{
		ID:   "question-borrowed-character",
		Text: "Your reading notes can pull a character into reality for 24 hours. Which book do you open first?",
		Options: []Option{
			{Icon: "📖", Value: "existential-teatime", Label: "The Little Prince, tea with the fox"},
			{Icon: "🔬", Value: "academic-fandom", Label: "On the Origin of Species, to argue with Darwin"},
			{Icon: "🍄", Value: "absurd-realist", Label: "Alice in Wonderland, for the Hatter's party"},
		},
	},
	{
		ID:   "question-living-object",
		Text: "One everyday object in your home gains a mind of its own. Which power do you grant it?",
		Options: []Option{
			{Icon: "🛋️", Value: "roaming-comfort", Label: "A sofa that wanders to wherever you slump"},
			{Icon: "🖼️", Value: "cyber-window", Label: "A picture frame that swaps in any view"},
			{Icon: "🧦", Value: "sock-diplomat", Label: "A sprite that pairs every orphaned sock"},
		},
	},
	{
		ID:   "question-tasting-memory",
		Text: "Supermarket samples briefly share the taste-memories of strangers. How do you use that?",
		Options: []Option{
			{Icon: "🍣", Value: "sensory-travel", Label: "Curate a world tour of borrowed palates"},
			{Icon: "👵", Value: "taste-anthropology", Label: "Hunt for the apple pie that tastes of a grandmother"},
			{Icon: "🚫", Value: "privacy-purist", Label: "Pack your own lunch forever"},
		},
	},
	{
		ID:   "question-stray-matchmaking",
		Text: "Stray animals can pick their own adopters, and the fee is your dreams. Do you pay it?",
		Options: []Option{
			{Icon: "🐾", Value: "cross-species-matchmaker", Label: "Run a shelter that matches hearts"},
			{Icon: "📊", Value: "cyber-cupid", Label: "Optimize the pairings with data"},
			{Icon: "🌌", Value: "lucid-fabulist", Label: "Write fiction from a dreamless sleep"},
		},
	},
	{
		ID:   "question-parallel-escalator",
		Text: "The subway escalator can carry riders into a parallel timeline for a single day. And you?",
		Options: []Option{
			{Icon: "🚇", Value: "transdimensional-guide", Label: "Run parallel-world day trips"},
			{Icon: "📚", Value: "multiverse-librarian", Label: "Collect the bestsellers of other timelines"},
			{Icon: "⚠️", Value: "timeline-warden", Label: "Post warnings and guard the rail"},
		},
	},
	{
		ID:   "question-deepest-color",
		Text: "What color is the strongest feeling sitting in you right now, and where does it pool?",
	},
	{
		ID:   "question-room-of-now",
		Text: "If your current situation were a room, name the three objects that surface first.",
	},
	{
		ID:   "question-invisible-rival",
		Text: "Describe the invisible opponent you keep circling, the one made of lost time or stacked memories.",
	},
	{
		ID:   "question-object-witness",
		Text: "Pick an object that stands for your state today. How does it see you?",
	},
	{
		ID:   "question-recent-turn",
		Text: "What small wrong question lately turned your mood somewhere unexpected?",
	},
}
