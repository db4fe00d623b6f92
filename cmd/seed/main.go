package main

import (
	"context"
	"log"
	"os"

	"berry-advisory-be/internal/config"
	"berry-advisory-be/internal/model"
	"berry-advisory-be/pkg/advisor/classify"
	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/database"
	"berry-advisory-be/pkg/embedding"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
)

type seedEntry struct {
	Category string
	Cultivar string
	Question string
	Answer   string
}

var entries = []seedEntry{
	{
		Category: classify.CategoryNutrition,
		Cultivar: cultivar.Qualified(cultivar.FamilyStrawberry, cultivar.QualifierRemontant),
		Question: "How should remontant strawberries be fed during the fruiting wave?",
		Answer:   "Remontant strawberries fruit in repeated waves, so feed little and often: apply a balanced NPK 10-10-10 at 20 g per square meter after each harvest wave, and supplement with potassium sulfate (15 g per square meter) once flower trusses appear. Avoid high nitrogen after mid-season or the plants push leaves instead of flowers.",
	},
	{
		Category: classify.CategoryNutrition,
		Cultivar: cultivar.Qualified(cultivar.FamilyStrawberry, cultivar.QualifierSummerBearing),
		Question: "What is the feeding schedule for summer-bearing strawberries?",
		Answer:   "Summer-bearing strawberries need two main feedings: a nitrogen-leaning feed (ammonium nitrate, 10 g per square meter) at the start of regrowth in spring, and a potassium-phosphorus feed right after harvest to support flower bud initiation for next year. Do not feed during flowering.",
	},
	{
		Category: classify.CategoryPlantProtection,
		Cultivar: cultivar.Qualified(cultivar.FamilyRaspberry, cultivar.QualifierGeneral),
		Question: "How do I treat gray mold on raspberries?",
		Answer:   "Gray mold (Botrytis) on raspberries spreads in damp, crowded plantings. Remove and destroy affected berries, thin canes to improve airflow, and avoid overhead watering. If pressure is high, spray a biofungicide based on Bacillus subtilis at first flowering and repeat after 10 days. Stop any treatment at least a week before picking.",
	},
	{
		Category: classify.CategoryPlantProtection,
		Cultivar: cultivar.FamilyCurrant,
		Question: "What should I do about powdery mildew on blackcurrant bushes?",
		Answer:   "American powdery mildew shows as a white felt on young currant shoots. Cut out and burn affected shoot tips, then spray with a solution of potassium bicarbonate (5 g per liter) or a sulfur-based fungicide. Repeat after 7-10 days. In autumn, thin the bush so the center stays open.",
	},
	{
		Category: classify.CategoryPlantingCare,
		Cultivar: cultivar.FamilyBlueberry,
		Question: "How do I plant highbush blueberry correctly?",
		Answer:   "Blueberry demands acidic soil at pH 3.8-4.8. Dig a pit 50x50 cm, fill it with acidic peat mixed with pine bark and sand, and set the plant 3-5 cm deeper than it grew in the pot. Water in with acidified water (1 tsp citric acid per 10 liters) and mulch with sawdust 8-10 cm thick.",
	},
	{
		Category: classify.CategoryPlantingCare,
		Cultivar: cultivar.FamilyHoneysuckle,
		Question: "When should edible honeysuckle be pruned?",
		Answer:   "Honeysuckle fruits on last year's growth, so prune only after leaf fall. For bushes under 5 years old limit pruning to removing broken branches. On older bushes cut out 2-3 of the oldest skeletal branches at the base each autumn. Never shear the tips where most flower buds sit.",
	},
	{
		Category: classify.CategorySoilImprovement,
		Cultivar: cultivar.GeneralInformation,
		Question: "How can I improve heavy clay soil before planting berry bushes?",
		Answer:   "Work in coarse sand (1 bucket per square meter) and well-rotted compost (5-6 kg per square meter) to a spade's depth the season before planting. Sowing a green manure such as phacelia or oats and digging it in further loosens the structure. On waterlogged clay, plant on raised ridges 20-25 cm high.",
	},
	{
		Category: classify.CategoryVarietySelection,
		Cultivar: cultivar.FamilyGooseberry,
		Question: "Which gooseberry varieties resist powdery mildew?",
		Answer:   "Choose modern sphaerotheca-resistant varieties: Invicta, Hinnonmaki Red, Hinnonmaki Yellow and Captivator all carry strong mildew resistance. Captivator is additionally nearly thornless, which makes picking easier. Avoid old European dessert varieties on damp sites.",
	},
	{
		Category: classify.CategoryVarietySelection,
		Cultivar: cultivar.FamilyBlackberry,
		Question: "What blackberry variety suits a cold climate?",
		Answer:   "For cold regions pick early-ripening, hardy varieties: Agawam (tolerates -30C), Darrow, or the thornless Chester if you can bend canes down for winter cover. Trailing thornless varieties like Thornfree ripen late and may lose part of the crop to early frost.",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	cfg := config.Load()

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		dsn = cfg.Database.Connection
	}
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	provider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.ApiKey,
		cfg.Ai.BaseURL,
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		log.Fatal("Error: Failed to initialize embedding provider:", err)
	}

	ctx := context.Background()
	created, skipped := 0, 0

	color.Cyan("Seeding %d knowledge entries...", len(entries))

	for _, e := range entries {
		var existing model.KnowledgeEntry
		if err := db.Where("question = ?", e.Question).First(&existing).Error; err == nil {
			color.Yellow("skip: %s", e.Question)
			skipped++
			continue
		}

		res, err := provider.Generate(ctx, e.Question+"\n\n"+e.Answer, "RETRIEVAL_DOCUMENT")
		if err != nil {
			color.Red("embed failed for %q: %v", e.Question, err)
			continue
		}

		entry := model.KnowledgeEntry{
			Category:  e.Category,
			Cultivar:  e.Cultivar,
			Question:  e.Question,
			Answer:    e.Answer,
			Embedding: pgvector.NewVector(embedding.FitDimension(res.Values, cfg.Ai.EmbeddingDimension)),
			Active:    true,
		}
		if err := db.Create(&entry).Error; err != nil {
			color.Red("insert failed for %q: %v", e.Question, err)
			continue
		}

		color.Green("created: [%s / %s] %s", e.Category, e.Cultivar, e.Question)
		created++
	}

	color.Cyan("Done. created=%d skipped=%d", created, skipped)
}
