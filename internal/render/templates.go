package render

// layoutHTML 是四个模板共用的页面骨架。
// 打印时固定为单页 A4，超出部分被裁掉。
const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .PersonalInfo.FullName}}{{.PersonalInfo.FullName}} - {{end}}{{.Title}}</title>
<style>
  @page { size: A4; margin: 0; }
  * { box-sizing: border-box; }
  body { margin: 0; background: #f3f4f6; color: #1f2937; font-family: "Helvetica Neue", Arial, sans-serif; font-size: 10.5pt; line-height: 1.45; }
  #resume-preview { width: 210mm; min-height: 297mm; margin: 0 auto; background: #fff; padding: 14mm 16mm; }
  h1, h2, h3, p, ul { margin: 0; }
  ul { padding-left: 16px; }
  .section { margin-top: 14px; }
  .entry { margin-top: 8px; }
  .entry-head { display: flex; justify-content: space-between; gap: 12px; }
  .muted { color: #6b7280; }
  .skills { display: flex; flex-wrap: wrap; gap: 6px; }
  @media print {
    html, body { width: 210mm; height: 297mm; overflow: hidden; background: #fff; }
    #resume-preview { margin: 0; height: 297mm; overflow: hidden; box-shadow: none; border: none; }
  }
  {{block "style" .}}{{end}}
</style>
</head>
<body>
<div id="resume-preview" class="template-{{.Template}}">
{{block "body" .}}{{end}}
</div>
</body>
</html>`

const classicHTML = `
{{define "style"}}
  .classic header { text-align: center; border-bottom: 2px solid {{accent .AccentColor}}; padding-bottom: 10px; }
  .classic h1 { font-size: 22pt; color: {{accent .AccentColor}}; }
  .classic h2 { font-size: 11pt; text-transform: uppercase; letter-spacing: 1px; color: {{accent .AccentColor}}; border-bottom: 1px solid #e5e7eb; padding-bottom: 2px; }
  .classic .contact { margin-top: 6px; display: flex; justify-content: center; flex-wrap: wrap; gap: 12px; }
{{end}}
{{define "body"}}
<div class="classic">
  <header>
    <h1>{{or .PersonalInfo.FullName "Your Name"}}</h1>
    {{with .PersonalInfo.Profession}}<p class="muted">{{.}}</p>{{end}}
    {{if hasContact .PersonalInfo}}
    <div class="contact muted">
      {{with .PersonalInfo.Email}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Phone}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Location}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.LinkedIn}}<a href="{{.}}">{{.}}</a>{{end}}
      {{with .PersonalInfo.Website}}<a href="{{.}}">{{.}}</a>{{end}}
    </div>
    {{end}}
  </header>
  {{template "sections" .}}
</div>
{{end}}
` + sectionsHTML

const modernHTML = `
{{define "style"}}
  #resume-preview.template-modern { padding: 0; }
  .modern header { background: {{accent .AccentColor}}; color: #fff; padding: 14mm 16mm 8mm; }
  .modern header h1 { font-size: 24pt; font-weight: 300; }
  .modern header .contact { margin-top: 8px; display: flex; flex-wrap: wrap; gap: 14px; font-size: 9.5pt; }
  .modern header a { color: #fff; }
  .modern main { padding: 4mm 16mm 14mm; }
  .modern h2 { font-size: 12pt; font-weight: 400; color: {{accent .AccentColor}}; border-bottom: 1px solid {{accent .AccentColor}}; padding-bottom: 2px; }
  .modern .skills span { background: {{accent .AccentColor}}; color: #fff; border-radius: 10px; padding: 1px 8px; font-size: 9pt; }
{{end}}
{{define "body"}}
<div class="modern">
  <header>
    <h1>{{or .PersonalInfo.FullName "Your Name"}}</h1>
    {{with .PersonalInfo.Profession}}<p>{{.}}</p>{{end}}
    <div class="contact">
      {{with .PersonalInfo.Email}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Phone}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Location}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.LinkedIn}}<a href="{{.}}">LinkedIn</a>{{end}}
      {{with .PersonalInfo.Website}}<a href="{{.}}">Website</a>{{end}}
    </div>
  </header>
  <main>{{template "sections" .}}</main>
</div>
{{end}}
` + sectionsHTML

const minimalHTML = `
{{define "style"}}
  .minimal h1 { font-size: 26pt; font-weight: 200; letter-spacing: 1px; }
  .minimal h2 { font-size: 9pt; font-weight: 600; text-transform: uppercase; letter-spacing: 2px; color: {{accent .AccentColor}}; }
  .minimal .contact { margin-top: 4px; display: flex; flex-wrap: wrap; gap: 10px; font-size: 9pt; }
  .minimal .skills span::after { content: " /"; color: #d1d5db; }
  .minimal .skills span:last-child::after { content: ""; }
{{end}}
{{define "body"}}
<div class="minimal">
  <header>
    <h1>{{or .PersonalInfo.FullName "Your Name"}}</h1>
    {{with .PersonalInfo.Profession}}<p class="muted">{{.}}</p>{{end}}
    <div class="contact muted">
      {{with .PersonalInfo.Email}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Phone}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.Location}}<span>{{.}}</span>{{end}}
      {{with .PersonalInfo.LinkedIn}}<a href="{{.}}">{{.}}</a>{{end}}
      {{with .PersonalInfo.Website}}<a href="{{.}}">{{.}}</a>{{end}}
    </div>
  </header>
  {{template "sections" .}}
</div>
{{end}}
` + sectionsHTML

const minimalImageHTML = `
{{define "style"}}
  #resume-preview.template-minimal-image { display: grid; grid-template-columns: 62mm 1fr; padding: 0; }
  .mi-side { background: #f9fafb; padding: 14mm 8mm; border-right: 3px solid {{accent .AccentColor}}; }
  .mi-side .avatar { width: 36mm; height: 36mm; border-radius: 50%; object-fit: cover; display: block; margin: 0 auto 10px; }
  .mi-side .avatar-fallback { width: 36mm; height: 36mm; border-radius: 50%; margin: 0 auto 10px; background: {{accent .AccentColor}}; color: #fff; display: flex; align-items: center; justify-content: center; font-size: 24pt; }
  .mi-side p { font-size: 9pt; word-break: break-word; margin-top: 4px; }
  .mi-main { padding: 14mm 12mm; }
  .mi-main h1 { font-size: 22pt; }
  .mi-main h2, .mi-side h2 { font-size: 10pt; text-transform: uppercase; letter-spacing: 1px; color: {{accent .AccentColor}}; }
{{end}}
{{define "body"}}
<aside class="mi-side">
  {{if .PersonalInfo.Image}}<img class="avatar" src="{{.PersonalInfo.Image}}" alt="">{{else}}<div class="avatar-fallback">{{initials .PersonalInfo.FullName}}</div>{{end}}
  <div class="section">
    <h2>Contact</h2>
    {{with .PersonalInfo.Email}}<p>{{.}}</p>{{end}}
    {{with .PersonalInfo.Phone}}<p>{{.}}</p>{{end}}
    {{with .PersonalInfo.Location}}<p>{{.}}</p>{{end}}
    {{with .PersonalInfo.LinkedIn}}<p><a href="{{.}}">{{.}}</a></p>{{end}}
    {{with .PersonalInfo.Website}}<p><a href="{{.}}">{{.}}</a></p>{{end}}
  </div>
  {{if .Skills}}
  <div class="section">
    <h2>Skills</h2>
    {{range .Skills}}<p>{{.}}</p>{{end}}
  </div>
  {{end}}
</aside>
<main class="mi-main">
  <h1>{{or .PersonalInfo.FullName "Your Name"}}</h1>
  {{with .PersonalInfo.Profession}}<p class="muted">{{.}}</p>{{end}}
  {{template "summary" .}}
  {{template "experience" .}}
  {{template "projects" .}}
  {{template "education" .}}
</main>
{{end}}
` + sectionsHTML

// sectionsHTML 定义各模板共享的内容分区。
const sectionsHTML = `
{{define "sections"}}
  {{template "summary" .}}
  {{template "experience" .}}
  {{template "projects" .}}
  {{template "education" .}}
  {{if .Skills}}
  <section class="section">
    <h2>Skills</h2>
    <div class="skills">{{range .Skills}}<span>{{.}}</span>{{end}}</div>
  </section>
  {{end}}
{{end}}

{{define "summary"}}
  {{with .ProfessionalSummary}}
  <section class="section">
    <h2>Professional Summary</h2>
    <p>{{.}}</p>
  </section>
  {{end}}
{{end}}

{{define "experience"}}
  {{if .Experience}}
  <section class="section">
    <h2>Experience</h2>
    {{range .Experience}}
    <div class="entry">
      <div class="entry-head">
        <h3>{{.Position}}{{if and .Position .Company}} · {{end}}{{.Company}}</h3>
        <span class="muted">{{dateRange .}}</span>
      </div>
      {{with lines .Description}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
    </div>
    {{end}}
  </section>
  {{end}}
{{end}}

{{define "projects"}}
  {{if .Projects}}
  <section class="section">
    <h2>Projects</h2>
    {{range .Projects}}
    <div class="entry">
      <div class="entry-head">
        <h3>{{.Name}}</h3>
        {{with .Type}}<span class="muted">{{.}}</span>{{end}}
      </div>
      {{with .Description}}<p>{{.}}</p>{{end}}
    </div>
    {{end}}
  </section>
  {{end}}
{{end}}

{{define "education"}}
  {{if .Education}}
  <section class="section">
    <h2>Education</h2>
    {{range .Education}}
    <div class="entry">
      <div class="entry-head">
        <h3>{{.Degree}}{{if and .Degree .Field}} in {{end}}{{.Field}}</h3>
        <span class="muted">{{formatDate .GraduationDate}}</span>
      </div>
      <p class="muted">{{.Institution}}{{with .GPA}} · GPA {{.}}{{end}}</p>
    </div>
    {{end}}
  </section>
  {{end}}
{{end}}
`
