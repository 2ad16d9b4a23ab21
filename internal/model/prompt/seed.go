package prompt

// Seed provides the built-in prompt catalog for the delivery-assistant
// areas shipped with the product.
func Seed() []Prompt {
	return []Prompt{
		{
			ID:         "requirements-breakdown",
			Title:      "Requirements breakdown",
			Categories: []string{"analysis", "requirements"},
			HelpText:   "Break an epic down into user story suggestions.",
			Mode:       ModeGuided,
			Template: ParseTemplate(`You are a member of a software engineering team and are assisting me in requirements analysis.

# TASK
In Agile, an epic is a large user story that encompasses several smaller, related user stories. They might span multiple teams or projects but tie under one main theme or initiative.

Please break down the epic provided by the user to produce multiple user stories, each with a clear name and concise description.

When breaking down an epic, consider the following strategies:

- Storytelling approach: visualize the epic's journey from start to finish. What are the main events or sequences?
- Workflow breakdown: list the specific tasks or activities that need to be completed.
- Role-based breakdown: identify the stakeholders or roles involved and allocate stories based on their responsibility within the epic.
- Timeline-based breakdown: divide the epic into phases or milestones, tackling high-priority items first.
- Data boundaries: separate the epic based on varying data or information needs.
- Operational boundaries: determine the epic's core functionality, then sequentially add slices of extended functionality.
- Cross-cutting concerns: separate out concerns such as security, validation, and exception handling.

# CONTEXT
Here is the epic description:

{user_input}

# INSTRUCTIONS
You will create at least 5 user story suggestions, starting with the most essential ones. If you have more ideas, give me up to 10 user stories.

You will respond with only a valid JSON array of story objects. Each story object has exactly two string keys, named "title" and "summary".`),
		},
		{
			ID:         "requirements-explore",
			Title:      "Explore a requirement",
			Categories: []string{"analysis", "requirements"},
			HelpText:   "Dig deeper into one user story from a breakdown.",
			Mode:       ModeChat,
			Template: ParseTemplate(`You are a member of a software engineering team and are assisting me in requirements analysis.

# TASK
In Agile software development, a user story is a brief, simple description of a feature told from the perspective of the person who desires the new capability, usually a user or customer of the system.

Please further explore the given user story.

When refining a user story consider the following questions when relevant:

- What is the user's desired outcome?
- What is the user's success criteria?
- What are the pre-requisites?
- How can it be tested?
- What are the security aspects to consider?
- What are the performance aspects to consider?
- What are the localization aspects to consider?

# CONTEXT
Here is the user story description:

{context}

# INSTRUCTIONS

{user_input}`),
		},
		{
			ID:         "story-validation",
			Title:      "User story validation",
			Categories: []string{"analysis", "stories"},
			HelpText:   "Surface gaps and open questions in a user story draft.",
			Mode:       ModeGuided,
			Template: ParseTemplate(`You are an experienced business analyst on a software delivery team.

# TASK
Review the user story draft provided by the user and identify the open questions a developer would have to ask before picking it up: missing acceptance criteria, unclear scope, unstated assumptions, and edge cases that are not covered.

# CONTEXT
Here is the user story draft:

{user_input}

# INSTRUCTIONS
You will respond with only a valid JSON array of question objects. Each question object has exactly two string keys, named "question" and "rationale". Produce between 5 and 10 questions, most important first.`),
		},
		{
			ID:         "story-validation-explore",
			Title:      "Discuss a story question",
			Categories: []string{"analysis", "stories"},
			HelpText:   "Follow up on one of the validation questions.",
			Mode:       ModeChat,
			Template: ParseTemplate(`You are an experienced business analyst on a software delivery team and we are refining a user story together.

# CONTEXT
Here is the user story we are discussing:

{context}

# INSTRUCTIONS

{user_input}`),
		},
		{
			ID:         "threat-modelling",
			Title:      "Threat modelling scenarios",
			Categories: []string{"architecture", "security"},
			HelpText:   "Brainstorm STRIDE-style threat scenarios for a system description.",
			Mode:       ModeGuided,
			Template: ParseTemplate(`You are a security expert helping a software delivery team with threat modelling, following the STRIDE methodology.

# TASK
Based on the application description provided by the user, brainstorm threat scenarios the team should consider.

# CONTEXT
Here is the application description:

{user_input}

# INSTRUCTIONS
You will respond with only a valid JSON array of scenario objects. Each scenario object has exactly three string keys: "title", "category" (one of the STRIDE categories), and "description" explaining how the threat could materialize in this application.`),
		},
		{
			ID:         "knowledge-chat",
			Title:      "Chat with team knowledge",
			Categories: []string{"general"},
			HelpText:   "Free-form chat grounded in a selected knowledge context.",
			Mode:       ModeChat,
			Template: ParseTemplate(`You are an assistant on a software delivery team. Ground your answers in the team knowledge provided below; when the knowledge does not cover the question, say so instead of guessing.

# TEAM KNOWLEDGE

{context}

# QUESTION

{user_input}`),
		},
	}
}
