package testapp

// Page is a static HTML page served by the application.
type Page struct {
	Path        string
	ContentType string
	Headers     map[string]string
	HTML        string
}

// StaticPages returns the pages served verbatim.
func StaticPages() []Page {
	return []Page{
		{
			Path: "/",
			HTML: `<!DOCTYPE html>
<html>
<head><title>TestEd Beta 2.0</title><meta charset="utf-8"></head>
<body>
<h1>Welcome to test app!</h1>
<a href="/info">More info</a>
<a href="/form/echo">Form</a>
</body>
</html>`,
		},
		{
			Path: "/redirect_meta_refresh",
			HTML: `<html><head><meta http-equiv="refresh" content="0; url=/info"></head><body>Redirecting</body></html>`,
		},
		{
			Path: "/redirect_interval",
			HTML: `<html><head><meta http-equiv="refresh" content="10; url=/info"></head><body>Wait for it</body></html>`,
		},
		{
			Path:    "/redirect_header_interval",
			Headers: map[string]string{"Refresh": "10; url=/info"},
			HTML:    `<html><body>Refresh header with a long delay</body></html>`,
		},
		{
			Path:    "/redirect_header_refresh",
			Headers: map[string]string{"Refresh": "0; url=/info"},
			HTML:    `<html><body>Refresh header</body></html>`,
		},
		{
			Path: "/refresh_self",
			HTML: `<html><head><meta http-equiv="refresh" content="0; url=/refresh_self#top"></head><body>Same page</body></html>`,
		},
		{
			Path: "/minimal",
			HTML: `<html><head><title>Minimal</title></head><body><h1>Minimal page</h1></body></html>`,
		},
		{
			// "Привет" in windows-1251, declared only in the page.
			Path:        "/content-cp1251",
			ContentType: "text/html",
			HTML:        "<html><head><meta charset=\"windows-1251\"><title>cp1251</title></head><body><p>\xcf\xf0\xe8\xe2\xe5\xf2</p></body></html>",
		},
		{
			// "Español" in ISO-8859-1, declared only in the header.
			Path:        "/content-iso",
			ContentType: "text/html; charset=ISO-8859-1",
			HTML:        "<html><head><title>iso</title></head><body><p>Espa\xf1ol</p></body></html>",
		},
	}
}
