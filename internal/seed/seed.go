// Package seed holds the sample catalog and loads it into a store. The same
// dataset backs the `seed` command, the CLI's offline mode, and any test
// that wants a realistic catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository/sqlite"
)

// Categories returns the sample category taxonomy. Fresh copies every call —
// callers can mutate the result freely.
func Categories() []model.Category {
	return []model.Category{
		{Name: "games", DisplayName: "Games", Icon: "🎮", Description: "Play the best mobile games"},
		{Name: "social", DisplayName: "Social", Icon: "💬", Description: "Connect with friends and family"},
		{Name: "tools", DisplayName: "Tools", Icon: "🔧", Description: "Useful utilities and tools"},
		{Name: "entertainment", DisplayName: "Entertainment", Icon: "🎬", Description: "Movies, TV shows, and more"},
		{Name: "productivity", DisplayName: "Productivity", Icon: "📊", Description: "Get things done efficiently"},
		{Name: "education", DisplayName: "Education", Icon: "📚", Description: "Learn new skills and knowledge"},
		{Name: "photography", DisplayName: "Photography", Icon: "📷", Description: "Photo editing and camera apps"},
		{Name: "music", DisplayName: "Music & Audio", Icon: "🎵", Description: "Music players and audio apps"},
	}
}

// Apps returns the sample catalog.
//
// Note the Fitness Tracker entry: its category is "health", which has no
// category record. That's intentional — categories are labels, and the
// catalog tolerates dangling ones.
func Apps() []model.App {
	return []model.App{
		{
			Name: "Photo Editor Pro", Developer: "Creative Studio", Category: "photography",
			Icon: "📷", Version: "3.5.2", Size: "45 MB",
			Downloads: 10000000, Rating: 4.5, Reviews: 125000,
			Description:     "Professional photo editing with advanced features including filters, effects, cropping, and more.",
			FullDescription: "Photo Editor Pro is the ultimate photo editing application for Android. With over 100 filters, advanced editing tools, and an intuitive interface, you can create stunning images in minutes. Features include: HDR effects, beauty tools, collage maker, batch processing, and much more.",
			WhatsNew:        "- New AI-powered filters\n- Improved performance\n- Bug fixes and stability improvements",
			Permissions:     []string{"Camera", "Storage", "Internet"},
			IsFeatured:      true,
			PackageName:     "com.creativestudio.photoeditor",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Music Player Ultimate", Developer: "Sound Wave Inc", Category: "music",
			Icon: "🎵", Version: "2.8.1", Size: "32 MB",
			Downloads: 50000000, Rating: 4.7, Reviews: 250000,
			Description:     "Feature-rich music player with equalizer, bass boost, and beautiful visualizations.",
			FullDescription: "Experience music like never before with Music Player Ultimate. Our advanced audio engine delivers crystal clear sound with customizable equalizer settings. Create playlists, browse by artist, album, or genre, and enjoy your music with stunning visualizations.",
			WhatsNew:        "- Added support for FLAC format\n- New widget designs\n- Performance improvements",
			Permissions:     []string{"Storage", "Audio"},
			IsFeatured:      true,
			PackageName:     "com.soundwave.musicplayer",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Task Manager Pro", Developer: "Productivity Apps", Category: "productivity",
			Icon: "✓", Version: "4.2.0", Size: "28 MB",
			Downloads: 5000000, Rating: 4.3, Reviews: 85000,
			Description:     "Organize your tasks, set reminders, and boost productivity.",
			FullDescription: "Task Manager Pro helps you stay organized and productive. Create tasks, set priorities, add reminders, and track your progress. With cloud sync, your tasks are always available across all your devices.",
			WhatsNew:        "- Cloud sync enabled\n- Dark mode added\n- New notification system",
			Permissions:     []string{"Calendar", "Notifications", "Internet"},
			PackageName:     "com.productivityapps.taskmanager",
			MinAndroidVersion: "6.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Game Center", Developer: "Fun Games Studio", Category: "games",
			Icon: "🎮", Version: "1.9.5", Size: "120 MB",
			Downloads: 100000000, Rating: 4.8, Reviews: 500000,
			Description:     "Collection of exciting mini-games. Puzzle, arcade, and strategy games all in one app.",
			FullDescription: "Game Center brings you the best collection of casual games. From puzzle challenges to action-packed arcade games, there's something for everyone. Play offline, compete with friends, and unlock achievements.",
			WhatsNew:        "- 5 new games added\n- Multiplayer mode\n- Bug fixes",
			Permissions:     []string{"Storage", "Internet"},
			IsFeatured:      true,
			PackageName:     "com.fungames.gamecenter",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Video Chat Connect", Developer: "Social Apps Co", Category: "social",
			Icon: "💬", Version: "5.1.2", Size: "65 MB",
			Downloads: 500000000, Rating: 4.6, Reviews: 1200000,
			Description:     "Connect with friends through video calls, messages, and group chats.",
			FullDescription: "Video Chat Connect makes staying in touch easy and fun. Enjoy crystal-clear video calls, instant messaging, group chats, and share photos and videos with your loved ones. End-to-end encrypted for your privacy.",
			WhatsNew:        "- Improved video quality\n- New filters and effects\n- Enhanced security",
			Permissions:     []string{"Camera", "Microphone", "Contacts", "Internet"},
			IsFeatured:      true,
			PackageName:     "com.socialapps.videochat",
			MinAndroidVersion: "6.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Fitness Tracker", Developer: "Health Apps", Category: "health",
			Icon: "💪", Version: "3.3.0", Size: "38 MB",
			Downloads: 20000000, Rating: 4.4, Reviews: 95000,
			Description:     "Track workouts, count calories, and achieve your fitness goals.",
			FullDescription: "Fitness Tracker is your personal fitness coach. Track your workouts, monitor your progress, count steps, calories, and get personalized workout plans. Sync with wearable devices and achieve your health goals.",
			WhatsNew:        "- New workout plans\n- Improved step counter\n- Integration with smartwatches",
			Permissions:     []string{"Sensors", "Location", "Internet"},
			PackageName:     "com.healthapps.fitness",
			MinAndroidVersion: "6.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Learning Hub", Developer: "EduTech", Category: "education",
			Icon: "📚", Version: "2.5.3", Size: "55 MB",
			Downloads: 15000000, Rating: 4.7, Reviews: 180000,
			Description:     "Learn new skills with video courses, quizzes, and certificates.",
			FullDescription: "Learning Hub provides access to thousands of courses across various subjects. Learn programming, design, business, languages, and more. Interactive lessons, quizzes, and certificates upon completion.",
			WhatsNew:        "- 100+ new courses\n- Offline download\n- Progress tracking",
			Permissions:     []string{"Storage", "Internet"},
			PackageName:     "com.edutech.learning",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "File Manager Plus", Developer: "System Tools", Category: "tools",
			Icon: "📁", Version: "6.0.1", Size: "22 MB",
			Downloads: 30000000, Rating: 4.5, Reviews: 220000,
			Description:     "Powerful file manager with cloud storage support.",
			FullDescription: "File Manager Plus is the most powerful file management app for Android. Browse files, create folders, move and copy files, compress and extract archives, and access cloud storage services. Clean and intuitive interface.",
			WhatsNew:        "- Added cloud storage support\n- New dark theme\n- Improved file search",
			Permissions:     []string{"Storage", "Internet"},
			IsFeatured:      true,
			PackageName:     "com.systemtools.filemanager",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Weather Live", Developer: "Weather Apps", Category: "tools",
			Icon: "🌤️", Version: "1.7.8", Size: "18 MB",
			Downloads: 25000000, Rating: 4.6, Reviews: 150000,
			Description:     "Accurate weather forecasts with hourly updates and beautiful widgets.",
			FullDescription: "Weather Live provides accurate weather forecasts for your location. Get hourly and 10-day forecasts, severe weather alerts, and customizable widgets. Beautiful weather animations and detailed weather information.",
			WhatsNew:        "- New weather animations\n- Improved accuracy\n- Widget customization",
			Permissions:     []string{"Location", "Internet"},
			PackageName:     "com.weatherapps.live",
			MinAndroidVersion: "5.0", TargetAndroidVersion: "13.0",
		},
		{
			Name: "Video Editor Studio", Developer: "Creative Media", Category: "entertainment",
			Icon: "🎬", Version: "2.4.6", Size: "72 MB",
			Downloads: 35000000, Rating: 4.4, Reviews: 180000,
			Description:     "Create and edit videos with professional tools and effects.",
			FullDescription: "Video Editor Studio is a powerful video editing app with professional features. Trim, merge, add music, apply filters, create transitions, and export in HD quality. Perfect for social media content creators.",
			WhatsNew:        "- New transition effects\n- 4K export support\n- Performance improvements",
			Permissions:     []string{"Storage", "Camera", "Microphone"},
			IsFeatured:      true,
			PackageName:     "com.creativemedia.videoeditor",
			MinAndroidVersion: "6.0", TargetAndroidVersion: "13.0",
		},
	}
}

// Run wipes the store and loads the sample dataset. It is a development
// fixture, not a migration: every run starts from zero.
func Run(ctx context.Context, db *sqlite.DB, logger *slog.Logger) error {
	logger.Info("clearing existing data")
	if err := db.Reset(ctx); err != nil {
		return err
	}

	logger.Info("inserting categories")
	for _, category := range Categories() {
		c := category
		if err := db.CreateCategory(ctx, &c); err != nil {
			return fmt.Errorf("seeding category %s: %w", category.Name, err)
		}
	}

	logger.Info("inserting apps")
	for _, app := range Apps() {
		a := app
		if err := db.Create(ctx, &a); err != nil {
			return fmt.Errorf("seeding app %s: %w", app.Name, err)
		}
	}

	logger.Info("database seeded",
		slog.Int("categories", len(Categories())),
		slog.Int("apps", len(Apps())),
	)
	return nil
}
