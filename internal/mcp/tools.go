package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("profile_list",
	mcp.WithDescription("List internship profiles split into map (in-person) and list (remote) views. "+
		"Physical profiles are kept only when the selected travel time is known and within max_minutes."),
	mcp.WithString("location_type",
		mcp.Description("Which profiles to include"),
		mcp.Enum("all", "physical", "remote"),
	),
	mcp.WithString("travel_mode",
		mcp.Description("Travel-time component the threshold applies to; all disables the threshold"),
		mcp.Enum("all", "driving", "walking", "bus"),
	),
	mcp.WithNumber("max_minutes",
		mcp.Description("Travel-time threshold in minutes (default 30)"),
	),
	mcp.WithArray("fields",
		mcp.Description("Restrict to these field-of-study tags"),
		mcp.WithStringItems(),
	),
)

var getToolDef = mcp.NewTool("profile_get",
	mcp.WithDescription("Fetch one internship profile with its full narrative"),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Profile id"),
	),
)

var submitToolDef = mcp.NewTool("profile_submit",
	mcp.WithDescription("Add an internship profile. Coordinates and driving/walking minutes are looked up "+
		"when missing. In-person profiles need a driving or bus time."),
	mcp.WithString("access_code",
		mcp.Description("Shared access code, when the deployment sets one"),
	),
	mcp.WithObject("profile",
		mcp.Required(),
		mcp.Description("Profile record using the stored JSON field names (firstName, company, isRemote, address, ...)"),
	),
)

var deleteToolDef = mcp.NewTool("profile_delete",
	mcp.WithDescription("Delete an internship profile by id"),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Profile id"),
	),
)

var importToolDef = mcp.NewTool("profile_import",
	mcp.WithDescription("Import profiles from CSV. Valid rows are committed; invalid rows are reported by row number. "+
		"Provide either csv text or a path to a .csv file in ~/.internmap/imports or an allowed path."),
	mcp.WithString("access_code",
		mcp.Description("Shared access code, when the deployment sets one"),
	),
	mcp.WithString("csv",
		mcp.Description("CSV document with a header row"),
	),
	mcp.WithString("path",
		mcp.Description("Path to a .csv file"),
	),
)

var migrateToolDef = mcp.NewTool("profile_migrate",
	mcp.WithDescription("Re-run the startup reconciliation against the bundled sample data and report each step"),
)
