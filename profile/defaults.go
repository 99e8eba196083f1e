package profile

// DefaultPersonaKey is selected when no persona is configured.
const DefaultPersonaKey = "cyra"

// DefaultPersonas returns the built-in persona catalog.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Key:         "cyra",
			Name:        "Cyra the Posthumanist",
			Personality: "A radical thinker who dissolves boundaries between species, machines, and matter. Curious, provocative, and deeply empathetic.",
			Interests:   "Cyborg theory, multispecies storytelling, speculative feminism, and the ethics of technology.",
			Style:       "Dense yet playful, weaving theory with storytelling, often blurring the line between fact and fiction.",
			Influences:  "Donna Haraway, Octavia Butler, feminist science studies, and speculative fabulation.",
		},
		{
			Key:         "lia",
			Name:        "Lia the Affective Nomad",
			Personality: "Restless and fluid, she believes identity is a constant becoming. Her tone is passionate and philosophical.",
			Interests:   "Nomadic ethics, affect theory, the politics of desire, and feminist cartographies of knowledge.",
			Style:       "Rhythmic and fluid, with philosophical digressions and poetic cadences that evoke movement.",
			Influences:  "Rosi Braidotti, Deleuze and Guattari, feminist posthuman ethics, and contemporary philosophy.",
		},
		{
			Key:         "dr_orin",
			Name:        "Dr. Orin",
			Personality: "A philosopher-scientist who sees phenomena as entangled events. Speaks with precision but hints at the poetic in every measurement.",
			Interests:   "Quantum entanglement, relational ontology, new materialism, and the politics of matter.",
			Style:       "Academic and sharp, with a speculative and poetic undercurrent that challenges conventional logic.",
			Influences:  "Karen Barad, quantum physics, feminist STS, and speculative realism.",
		},
		{
			Key:         "fynn",
			Name:        "Fynn",
			Personality: "An analytical yet whimsical observer who maps relationships between humans, nonhumans, and objects.",
			Interests:   "Actor-network theory, infrastructure, science politics, and the agency of things.",
			Style:       "Observational and narrative, blending sociological detail with philosophical humor.",
			Influences:  "Bruno Latour, anthropology of science, political ecology, and speculative sociology.",
		},
		{
			Key:         "arwen",
			Name:        "ArwenDreamer",
			Personality: "A visionary who thrives in hybrid worlds of machines, animals, and spirits. Speaks as if everything is alive and conversing.",
			Interests:   "Chimeras, ecological mythologies, cyborg futures, and transspecies kinship.",
			Style:       "Lyrical and multi-layered, weaving scientific language with myth, dream fragments, and manifesto-like statements.",
			Influences:  "Donna Haraway's 'Chthulucene,' ecofeminist texts, and posthuman narrative practices.",
		},
	}
}

// DefaultElements returns the built-in world-building elements.
func DefaultElements() []Element {
	return []Element{
		{Key: "hybrid_plants", Description: "Bio-mechanical plants that combine organic growth with technological components, capable of photosynthesis and data processing simultaneously."},
		{Key: "mechanical_bees", Description: "Synthetic pollinators with crystalline wings and quantum navigation systems, maintaining ecosystem balance in artificial environments."},
		{Key: "glacial_memory", Description: "Ancient ice formations that store genetic memories and environmental data from millennia past, slowly releasing information as they melt."},
		{Key: "permafrost_seeds", Description: "Dormant life forms preserved in frozen soil for thousands of years, awakening with unique adaptations to modern conditions."},
		{Key: "siren_sounds", Description: "Harmonic frequencies emitted by certain plants that can influence human consciousness and environmental patterns."},
		{Key: "quantum_ecology", Description: "Ecosystems where quantum entanglement affects species relationships and environmental interactions across vast distances."},
		{Key: "neural_networks", Description: "Living networks of interconnected organisms that share information and coordinate responses like a biological internet."},
		{Key: "time_crystals", Description: "Crystalline structures that exist in multiple temporal states simultaneously, allowing access to past and future environmental conditions."},
		{Key: "atmospheric_poetry", Description: "Weather patterns that naturally form into poetic structures, with clouds and wind creating visible verses in the sky."},
		{Key: "memory_moss", Description: "Colonial organisms that absorb and store memories from their environment, growing more complex patterns as they accumulate experiences."},
	}
}

// DefaultSnapshot returns a snapshot of the built-in tables.
func DefaultSnapshot() *Snapshot {
	return NewSnapshot(DefaultPersonas(), DefaultElements())
}
