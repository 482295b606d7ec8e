package server

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	// navigation
	s.mcp.AddTool(
		mcp.NewTool("browser_navigate",
			mcp.WithDescription("Navigate the active tab to a URL and wait for the page to load. A timeout is reported as a warning; the page may still be partially usable."),
			mcp.WithString("url", mcp.Description("Absolute URL to open"), mcp.Required()),
			mcp.WithBoolean("wait_for_load", mcp.Description("Wait for the load event (default: true)")),
		),
		s.handleNavigate,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_go_back",
			mcp.WithDescription("Navigate the active tab one entry back in its history"),
		),
		s.handleGoBack,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_reload",
			mcp.WithDescription("Reload the active tab"),
		),
		s.handleReload,
	)

	// snapshot / element discovery
	s.mcp.AddTool(
		mcp.NewTool("browser_snapshot",
			mcp.WithDescription("Capture a text outline of the current page with numeric element labels. Labels address elements in follow-up click/type/hover calls and stay valid until the next snapshot or page change."),
			mcp.WithBoolean("include_hidden", mcp.Description("Include hidden and zero-size elements")),
		),
		s.handleSnapshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_get_clickable_elements",
			mcp.WithDescription("List the interactive elements (clickable, hoverable, selectable) on the current page with their labels"),
		),
		s.handleClickableElements,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_extract_content",
			mcp.WithDescription("Extract the readable article content of the current page, stripped of navigation and boilerplate"),
		),
		s.handleExtractContent,
	)

	// element actions
	s.mcp.AddTool(
		mcp.NewTool("browser_click",
			mcp.WithDescription("Click an element, addressed by its snapshot label or a CSS selector"),
			mcp.WithNumber("label", mcp.Description("Element label from the last snapshot")),
			mcp.WithString("selector", mcp.Description("CSS selector (alternative to label)")),
		),
		s.handleClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_type",
			mcp.WithDescription("Type text into an element, addressed by its snapshot label or a CSS selector"),
			mcp.WithNumber("label", mcp.Description("Element label from the last snapshot")),
			mcp.WithString("selector", mcp.Description("CSS selector (alternative to label)")),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithBoolean("clear", mcp.Description("Replace the existing value instead of appending")),
		),
		s.handleType,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_hover",
			mcp.WithDescription("Hover the mouse over an element by its snapshot label"),
			mcp.WithNumber("label", mcp.Description("Element label from the last snapshot"), mcp.Required()),
		),
		s.handleHover,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_select",
			mcp.WithDescription("Select dropdown options by visible text on an element addressed by label"),
			mcp.WithNumber("label", mcp.Description("Element label from the last snapshot"), mcp.Required()),
			mcp.WithArray("options", mcp.Description("Visible text of the options to select"), mcp.Required()),
		),
		s.handleSelect,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_press_key",
			mcp.WithDescription("Press a key on the active tab (Enter, Tab, Escape, arrows, or a single character)"),
			mcp.WithString("key", mcp.Description("Key name or single character"), mcp.Required()),
		),
		s.handlePressKey,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_scroll",
			mcp.WithDescription("Scroll the active tab"),
			mcp.WithString("direction", mcp.Description("up, down, top, or bottom"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Pixels for up/down (default: 500)")),
		),
		s.handleScroll,
	)

	// scripting and waiting
	s.mcp.AddTool(
		mcp.NewTool("browser_evaluate",
			mcp.WithDescription("Run JavaScript in the active tab and return the result as JSON"),
			mcp.WithString("code", mcp.Description("JavaScript to run, e.g. '() => document.title'"), mcp.Required()),
		),
		s.handleEvaluate,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_wait_for",
			mcp.WithDescription("Wait for an element matching a CSS selector to appear (or disappear with gone=true)"),
			mcp.WithString("selector", mcp.Description("CSS selector"), mcp.Required()),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: session timeout)")),
			mcp.WithBoolean("gone", mcp.Description("Wait for the element to disappear instead")),
		),
		s.handleWaitFor,
	)

	// screenshots
	s.mcp.AddTool(
		mcp.NewTool("browser_screenshot",
			mcp.WithDescription("Capture a screenshot of the viewport, the full page, or one element. Stored under a name readable via the screenshot:// resource."),
			mcp.WithString("name", mcp.Description("Name to store the capture under (default: 'latest')")),
			mcp.WithBoolean("full_page", mcp.Description("Capture the full scrollable page")),
			mcp.WithNumber("label", mcp.Description("Capture only the element with this snapshot label")),
			mcp.WithNumber("scale", mcp.Description("Downscale factor 0.1-1.0 (default: 1.0)")),
		),
		s.handleScreenshot,
	)

	// tabs
	s.mcp.AddTool(
		mcp.NewTool("browser_tab_list",
			mcp.WithDescription("List open tabs with their index, URL, and title. Popups opened by the page appear here."),
		),
		s.handleTabList,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_tab_new",
			mcp.WithDescription("Open a new tab and make it active"),
			mcp.WithString("url", mcp.Description("URL to open in the new tab")),
		),
		s.handleTabNew,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_tab_switch",
			mcp.WithDescription("Switch the active tab. Invalidates the element snapshot; take a new one before label-based actions."),
			mcp.WithNumber("index", mcp.Description("Tab index from browser_tab_list"), mcp.Required()),
		),
		s.handleTabSwitch,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_tab_close",
			mcp.WithDescription("Close a tab. The last remaining tab cannot be closed."),
			mcp.WithNumber("index", mcp.Description("Tab index from browser_tab_list"), mcp.Required()),
		),
		s.handleTabClose,
	)

	// artifacts
	s.mcp.AddTool(
		mcp.NewTool("browser_console_logs",
			mcp.WithDescription("Read recent console output from all tabs"),
			mcp.WithNumber("tail", mcp.Description("Only the most recent N entries (default: all retained)")),
			mcp.WithString("level", mcp.Description("Only entries of this level, e.g. error, warning, log")),
		),
		s.handleConsoleLogs,
	)

	s.mcp.AddTool(
		mcp.NewTool("browser_downloads",
			mcp.WithDescription("List downloads tracked this session with their state and progress. Completed files are readable via the download:// resource."),
		),
		s.handleDownloads,
	)
}
