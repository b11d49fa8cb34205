package engine

// GrowthStage is one weight band of the tilapia feeding reference.
type GrowthStage struct {
	StartWeight      float64 // grams, inclusive
	EndWeight        float64 // grams, exclusive
	DailyConsumption float64 // fraction of biomass fed per day
	FeedingsPerDay   int
	FeedType         string
}

// TemperatureCorrection scales the weekly weight gain at a given water temperature.
type TemperatureCorrection struct {
	Celsius int
	Factor  float64
}

// growthStages is ordered by StartWeight and contiguous.
var growthStages = [...]GrowthStage{
	{0.5, 1.5, 0.15, 6, "Ração 45% 1 mm"},
	{1.5, 3, 0.13, 6, "Ração 45% 1 mm"},
	{3, 5, 0.11, 6, "Ração 45% 1 mm"},
	{5, 9, 0.09, 6, "Ração 40% 1,7 a 2 mm"},
	{9, 14, 0.085, 6, "Ração 40% 1,7 a 2 mm"},
	{14, 21, 0.07, 6, "Ração 40% 1,7 a 2 mm"},
	{21, 31, 0.068, 6, "Ração 40% 1,7 a 2 mm"},
	{31, 45, 0.063, 6, "Ração 35% 4 a 6 mm"},
	{45, 65, 0.058, 6, "Ração 35% 4 a 6 mm"},
	{65, 90, 0.055, 6, "Ração 35% 4 a 6 mm"},
	{90, 120, 0.052, 3, "Ração 35% 4 a 6 mm"},
	{120, 152, 0.05, 3, "Ração 35% 4 a 6 mm"},
	{152, 190, 0.043, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{190, 231, 0.036, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{231, 273, 0.033, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{273, 316, 0.031, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{316, 360, 0.029, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{360, 405, 0.027, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{405, 451, 0.025, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{451, 498, 0.023, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{498, 546, 0.022, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{546, 595, 0.02, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{595, 645, 0.019, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{645, 696, 0.018, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{696, 748, 0.017, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{748, 801, 0.016, 3, "Ração 32% Crescimento 6 a 8 mm"},
	{801, 854, 0.015, 3, "Ração Terminação 32% 6 a 8 mm"},
	{854, 908, 0.015, 3, "Ração Terminação 32% 6 a 8 mm"},
	{908, 963, 0.014, 3, "Ração Terminação 32% 6 a 8 mm"},
	{963, 1019, 0.013, 3, "Ração Terminação 32% 6 a 8 mm"},
	{1019, 1076, 0.012, 3, "Ração Terminação 32% 6 a 8 mm"},
	{1076, 1134, 0.011, 3, "Ração Terminação 32% 6 a 8 mm"},
	{1134, 1194, 0.011, 3, "Ração Terminação 32% 6 a 8 mm"},
}

// temperatureCorrections is ordered by Celsius. Factor 1.0 is the 26-31°C optimum.
var temperatureCorrections = [...]TemperatureCorrection{
	{21, 0.8},
	{22, 0.8},
	{23, 0.85},
	{24, 0.85},
	{25, 0.9},
	{26, 1.0},
	{27, 1.0},
	{28, 1.0},
	{29, 1.0},
	{30, 1.0},
	{31, 1.0},
	{32, 0.9},
}

// GrowthStages returns a copy of the growth reference table.
func GrowthStages() []GrowthStage {
	out := make([]GrowthStage, len(growthStages))
	copy(out, growthStages[:])
	return out
}

// TemperatureCorrections returns a copy of the temperature correction table.
func TemperatureCorrections() []TemperatureCorrection {
	out := make([]TemperatureCorrection, len(temperatureCorrections))
	copy(out, temperatureCorrections[:])
	return out
}
