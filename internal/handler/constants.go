package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamUsername is the username parameter pattern.
	RouteParamUsername = "/{username}"

	// RoutePosts is the post listing route.
	RoutePosts = "/posts"
	// RoutePostsNew is the post creation route.
	RoutePostsNew = RoutePosts + "/new"
	// RoutePostsID is the post detail route pattern.
	RoutePostsID = RoutePosts + RouteParamID
	// RoutePostsIDEdit is the post edit route pattern.
	RoutePostsIDEdit = RoutePostsID + "/edit"
	// RoutePostsIDDelete is the post delete route pattern.
	RoutePostsIDDelete = RoutePostsID + "/delete"
	// RoutePostsIDLike is the like toggle route pattern.
	RoutePostsIDLike = RoutePostsID + "/like"

	// RouteCategoryName is the category filter route pattern.
	RouteCategoryName = "/categories/{name}"
	// RouteTagSlug is the tag filter route pattern.
	RouteTagSlug = "/tags/{slug}"

	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteProfile is the public profile route pattern.
	RouteProfile = "/profile" + RouteParamUsername
	// RouteProfileEdit is the profile edit route pattern.
	RouteProfileEdit = RouteProfile + "/edit"
	// RouteMyProfile is the own-profile route.
	RouteMyProfile = "/my-profile"
	// RouteChangePassword is the password change route.
	RouteChangePassword = "/change-password"

	// RouteContact is the contact form route.
	RouteContact = "/contact"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
)

const (
	redirectLogin    = RouteLogin
	redirectRegister = RouteRegister
	redirectPosts    = RoutePosts
	redirectContact  = RouteContact

	redirectPostsID = RoutePosts + "/%d"
)

// postsPerPage is the page size for all post listings.
const postsPerPage = 6

// Home page limits.
const (
	homeTrendingLimit   = 3
	homeLatestLimit     = 6
	homeTopAuthorsLimit = 4
	// trendingTagName selects the posts featured at the top of the home page.
	trendingTagName = "trending"
)
