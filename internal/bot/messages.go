package bot

const (
	msgWelcome = "👋 <b>Hi! I'm AniSearch Bot</b>\n\n" +
		"🔍 Send me a screenshot from an anime and I will try to find:\n" +
		"• the anime title\n" +
		"• the episode number\n" +
		"• the exact time of the scene\n\n" +
		"📸 Just send a picture and wait a moment!"

	msgBlocked = "❌ You are blocked from using this bot."

	msgSearching = "🔍 Searching for the anime..."

	msgTooLarge = "❌ The image is too large.\n" +
		"Please send a smaller image."

	msgNotFound = "😔 Sorry, I could not find this anime.\n" +
		"Possible reasons:\n" +
		"• the image is too large\n" +
		"• the frame quality is poor\n" +
		"• the anime is not in the database\n\n" +
		"Try sending another frame!"

	msgGenericError = "❌ Something went wrong while searching.\n" +
		"Please try again later."

	unknownTitle = "Unknown anime"

	anilistURL = "https://anilist.co/anime/"
)
