// internal/webform/template.go
package webform

// formData feeds the contact form template.
type formData struct {
	ContactTypes []string
	Request      ContactRequest
	Answer       string
	Error        string
	Submitted    bool
}

const formHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Member Support</title>
    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f3f4f6; margin: 0; }
        .wrap { max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
        .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.1); padding: 1.5rem; margin-bottom: 1rem; }
        h1 { font-size: 1.4rem; margin-top: 0; color: #111827; }
        label { display: block; font-size: .85rem; color: #374151; margin: .75rem 0 .25rem; }
        input, select, textarea { width: 100%; box-sizing: border-box; padding: .5rem; border: 1px solid #d1d5db; border-radius: 6px; font-size: .95rem; }
        textarea { min-height: 6rem; resize: vertical; }
        button { margin-top: 1rem; background: #1d4ed8; color: #fff; border: 0; border-radius: 6px; padding: .6rem 1.4rem; font-size: .95rem; cursor: pointer; }
        button:hover { background: #1e40af; }
        .answer { background: #ecfdf5; border: 1px solid #6ee7b7; }
        .answer h2 { font-size: 1rem; margin-top: 0; color: #065f46; }
        .error { background: #fef2f2; border: 1px solid #fca5a5; color: #991b1b; }
    </style>
</head>
<body>
    <div class="wrap">
        {{if .Error}}
        <div class="card error">{{.Error}}</div>
        {{end}}
        {{if .Answer}}
        <div class="card answer">
            <h2>Our answer</h2>
            <p>{{.Answer}}</p>
            <p>A member of the helpdesk will follow up if anything is missing.</p>
        </div>
        {{end}}
        <div class="card">
            <h1>How can we help?</h1>
            <form method="post" action="/contact">
                <label for="first_name">First name</label>
                <input id="first_name" name="first_name" value="{{.Request.FirstName}}" required>
                <label for="last_name">Last name</label>
                <input id="last_name" name="last_name" value="{{.Request.LastName}}" required>
                <label for="email">Email</label>
                <input id="email" name="email" type="email" value="{{.Request.Email}}" required>
                <label for="date_of_birth">Date of birth (optional)</label>
                <input id="date_of_birth" name="date_of_birth" type="date" value="{{.Request.DateOfBirth}}">
                <label for="contact_type">What is this about?</label>
                <select id="contact_type" name="contact_type" required>
                    {{range .ContactTypes}}
                    <option value="{{.}}" {{if eq . $.Request.ContactType}}selected{{end}}>{{.}}</option>
                    {{end}}
                </select>
                <label for="question">Your question</label>
                <textarea id="question" name="question" required>{{.Request.Question}}</textarea>
                <button type="submit">Submit</button>
            </form>
        </div>
    </div>
</body>
</html>
`
